package cloudenv

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
)

const vcapServicesVar = "VCAP_SERVICES"

type sourceKind string

const (
	sourceCloudFoundry sourceKind = "cloudfoundry"
	sourceUserProvided sourceKind = "user-provided"
	sourceEnv          sourceKind = "env"
	sourceFile         sourceKind = "file"
)

// pattern is a parsed search pattern.
type pattern struct {
	kind       sourceKind
	name       string // env var name, file path, or service instance name
	credential string // user-provided credential key
	path       []string
	hasPath    bool
}

func parsePattern(raw string) (pattern, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || rest == "" {
		return pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, raw)
	}

	switch sourceKind(kind) {
	case sourceCloudFoundry:
		if !strings.HasPrefix(strings.TrimSpace(rest), "$") {
			return pattern{kind: sourceCloudFoundry, name: strings.TrimSpace(rest)}, nil
		}
		keys, err := parsePath(rest)
		if err != nil {
			return pattern{}, err
		}
		return pattern{kind: sourceCloudFoundry, path: keys, hasPath: true}, nil

	case sourceUserProvided:
		service, credential, ok := strings.Cut(rest, ":")
		if !ok || service == "" || credential == "" {
			return pattern{}, fmt.Errorf("%w: %q needs user-provided:<service>:<credential>", ErrInvalidPattern, raw)
		}
		return pattern{kind: sourceUserProvided, name: service, credential: credential}, nil

	case sourceEnv:
		name, expr, hasPath := strings.Cut(rest, ":")
		if name == "" {
			return pattern{}, fmt.Errorf("%w: %q has no variable name", ErrInvalidPattern, raw)
		}
		p := pattern{kind: sourceEnv, name: name}
		if hasPath {
			keys, err := parsePath(expr)
			if err != nil {
				return pattern{}, err
			}
			p.path, p.hasPath = keys, true
		}
		return p, nil

	case sourceFile:
		idx := strings.LastIndex(rest, ":$")
		if idx <= 0 {
			return pattern{}, fmt.Errorf("%w: %q needs file:<path>:<jsonpath>", ErrInvalidPattern, raw)
		}
		keys, err := parsePath(rest[idx+1:])
		if err != nil {
			return pattern{}, err
		}
		return pattern{kind: sourceFile, name: rest[:idx], path: keys, hasPath: true}, nil
	}

	return pattern{}, fmt.Errorf("%w: unknown source %q", ErrInvalidPattern, kind)
}

// resolve evaluates one pattern. A missing variable, file, or path reports
// found=false without an error so the next pattern can be tried.
func (e *Env) resolve(p pattern) (string, bool, error) {
	switch p.kind {
	case sourceCloudFoundry:
		raw, ok := e.lookupEnv(vcapServicesVar)
		if !ok || strings.TrimSpace(raw) == "" {
			return "", false, nil
		}
		if !p.hasPath {
			return serviceInstance([]byte(raw), p.name)
		}
		return evaluate([]byte(raw), p.path)

	case sourceUserProvided:
		raw, ok := e.lookupEnv(vcapServicesVar)
		if !ok || strings.TrimSpace(raw) == "" {
			return "", false, nil
		}
		return userProvided([]byte(raw), p.name, p.credential)

	case sourceEnv:
		raw, ok := e.lookupEnv(p.name)
		if !ok {
			return "", false, nil
		}
		if !p.hasPath {
			return raw, true, nil
		}
		return evaluate([]byte(raw), p.path)

	case sourceFile:
		path := p.name
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.root, path)
		}
		data, err := e.readFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("read %s: %w", path, err)
		}
		return evaluate(data, p.path)
	}

	return "", false, fmt.Errorf("%w: unknown source %q", ErrInvalidPattern, p.kind)
}

func userProvided(vcap []byte, service, credential string) (string, bool, error) {
	var (
		value    string
		found    bool
		innerErr error
	)

	_, err := jsonparser.ArrayEach(vcap, func(entry []byte, _ jsonparser.ValueType, _ int, _ error) {
		if found || innerErr != nil {
			return
		}
		name, err := jsonparser.GetString(entry, "name")
		if err != nil || name != service {
			return
		}
		value, found, innerErr = evaluate(entry, []string{"credentials", credential})
	}, string(sourceUserProvided))
	if err != nil {
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("scan user-provided services: %w", err)
	}

	return value, found, innerErr
}

// serviceInstance returns the raw credentials object of the instance called
// name, whatever label it is bound under.
func serviceInstance(vcap []byte, name string) (string, bool, error) {
	var (
		value    string
		found    bool
		innerErr error
	)

	err := jsonparser.ObjectEach(vcap, func(_ []byte, instances []byte, dataType jsonparser.ValueType, _ int) error {
		if found || innerErr != nil || dataType != jsonparser.Array {
			return nil
		}
		_, _ = jsonparser.ArrayEach(instances, func(entry []byte, _ jsonparser.ValueType, _ int, _ error) {
			if found || innerErr != nil {
				return
			}
			if instance, err := jsonparser.GetString(entry, "name"); err != nil || instance != name {
				return
			}
			value, found, innerErr = evaluate(entry, []string{"credentials"})
		})
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("scan service instances: %w", err)
	}

	return value, found, innerErr
}
