package cloudenv

import "errors"

var (
	// ErrKeyNotFound is returned when a key has no mapping or none of its
	// search patterns resolve to a value.
	ErrKeyNotFound = errors.New("configuration key not found")
	// ErrInvalidPattern is returned for malformed search patterns or JSON paths.
	ErrInvalidPattern = errors.New("invalid search pattern")
)
