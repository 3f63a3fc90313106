package cloudenv

import (
	"errors"
	"fmt"
)

// Provider resolves a configuration key to its string value.
type Provider interface {
	GetString(key string) (string, error)
}

// Static serves a fixed set of values, typically overrides from the service
// configuration file.
type Static map[string]string

// GetString implements Provider.
func (s Static) GetString(key string) (string, error) {
	value, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return value, nil
}

// GetDictionary decodes the value of key as a JSON object.
func (s Static) GetDictionary(key string) (map[string]any, error) {
	return getDictionary(s, key)
}

// Chain asks each provider in turn. Only ErrKeyNotFound falls through to the
// next provider; any other error stops the lookup.
type Chain []Provider

// GetString implements Provider.
func (c Chain) GetString(key string) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		value, err := p.GetString(key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrKeyNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// GetDictionary decodes the value of key as a JSON object.
func (c Chain) GetDictionary(key string) (map[string]any, error) {
	return getDictionary(c, key)
}
