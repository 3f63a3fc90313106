package cloudenv

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Mapping lists the search patterns for one configuration key.
type Mapping struct {
	SearchPatterns []string `yaml:"searchPatterns" json:"searchPatterns" validate:"required,min=1,dive,required"`
}

// Options tunes how an Env reaches the outside world.
type Options struct {
	// Root is the base directory for relative file: patterns (default ".").
	Root string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// ReadFile defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Env resolves keys through their configured search patterns.
// It is safe for concurrent use once constructed.
type Env struct {
	patterns  map[string][]pattern
	root      string
	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
}

// Load reads a mappings file (JSON or YAML) and builds an Env from it.
func Load(path string, opts Options) (*Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}

	mappings, err := ParseMappings(data)
	if err != nil {
		return nil, err
	}

	return New(mappings, opts)
}

// ParseMappings decodes mappings from JSON or YAML.
func ParseMappings(data []byte) (map[string]Mapping, error) {
	var mappings map[string]Mapping
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parse mappings: %w", err)
	}
	if mappings == nil {
		mappings = map[string]Mapping{}
	}
	return mappings, nil
}

// New validates the mappings, parses every search pattern and returns an Env.
func New(mappings map[string]Mapping, opts Options) (*Env, error) {
	env := &Env{
		patterns:  make(map[string][]pattern, len(mappings)),
		root:      opts.Root,
		lookupEnv: opts.LookupEnv,
		readFile:  opts.ReadFile,
	}
	if env.root == "" {
		env.root = "."
	}
	if env.lookupEnv == nil {
		env.lookupEnv = os.LookupEnv
	}
	if env.readFile == nil {
		env.readFile = os.ReadFile
	}

	for key, mapping := range mappings {
		if err := validate.Struct(mapping); err != nil {
			return nil, fmt.Errorf("%w: mapping %q: %v", ErrInvalidPattern, key, err)
		}
		parsed := make([]pattern, 0, len(mapping.SearchPatterns))
		for _, raw := range mapping.SearchPatterns {
			p, err := parsePattern(raw)
			if err != nil {
				return nil, fmt.Errorf("mapping %q: %w", key, err)
			}
			parsed = append(parsed, p)
		}
		env.patterns[key] = parsed
	}

	return env, nil
}

// GetString returns the first value any search pattern of key resolves to.
func (e *Env) GetString(key string) (string, error) {
	patterns, ok := e.patterns[key]
	if !ok {
		return "", fmt.Errorf("%w: %s has no mapping", ErrKeyNotFound, key)
	}

	for _, p := range patterns {
		value, found, err := e.resolve(p)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", key, err)
		}
		if found {
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// GetDictionary resolves key and decodes the value as a JSON object.
func (e *Env) GetDictionary(key string) (map[string]any, error) {
	return getDictionary(e, key)
}

// Keys returns the mapped keys in sorted order.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.patterns))
	for key := range e.patterns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func getDictionary(p Provider, key string) (map[string]any, error) {
	raw, err := p.GetString(key)
	if err != nil {
		return nil, err
	}

	var dict map[string]any
	if err := yaml.Unmarshal([]byte(raw), &dict); err != nil {
		return nil, fmt.Errorf("decode %s as dictionary: %w", key, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("decode %s as dictionary: value is not an object", key)
	}
	return dict, nil
}
