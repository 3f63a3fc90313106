package cloudenv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// parsePath converts a JSONPath subset ($, .name, ['name'], ["name"], [N])
// into jsonparser key segments.
func parsePath(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "$") {
		return nil, fmt.Errorf("%w: path %q must start with $", ErrInvalidPattern, expr)
	}

	rest := expr[1:]
	keys := make([]string, 0, 4)
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end == -1 {
				end = len(rest)
			}
			name := rest[:end]
			if name == "" {
				return nil, fmt.Errorf("%w: empty member name in %q", ErrInvalidPattern, expr)
			}
			keys = append(keys, name)
			rest = rest[end:]
		case '[':
			if len(rest) > 1 && (rest[1] == '\'' || rest[1] == '"') {
				quote := rest[1]
				closing := strings.IndexByte(rest[2:], quote)
				if closing == -1 {
					return nil, fmt.Errorf("%w: unterminated quote in %q", ErrInvalidPattern, expr)
				}
				name := rest[2 : 2+closing]
				after := rest[2+closing+1:]
				if !strings.HasPrefix(after, "]") {
					return nil, fmt.Errorf("%w: missing ] in %q", ErrInvalidPattern, expr)
				}
				keys = append(keys, name)
				rest = after[1:]
				continue
			}

			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("%w: missing ] in %q", ErrInvalidPattern, expr)
			}
			index, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
			if err != nil || index < 0 {
				return nil, fmt.Errorf("%w: invalid array index %q in %q", ErrInvalidPattern, rest[1:end], expr)
			}
			keys = append(keys, "["+strconv.Itoa(index)+"]")
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPattern, rest[0], expr)
		}
	}

	return keys, nil
}

// evaluate looks up keys in a JSON document. String leaves are unescaped,
// every other leaf is returned as raw JSON text.
func evaluate(data []byte, keys []string) (string, bool, error) {
	value, dataType, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("evaluate path: %w", err)
	}

	switch dataType {
	case jsonparser.NotExist, jsonparser.Null:
		return "", false, nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return "", false, fmt.Errorf("decode string: %w", err)
		}
		return s, true, nil
	default:
		return string(value), true, nil
	}
}
