package binding

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/eugenenazirov/cloud-bindings/internal/cloudenv"
	"github.com/eugenenazirov/cloud-bindings/internal/metrics"
)

// Getter resolves a configuration key to its value. Implementations return an
// error wrapping cloudenv.ErrKeyNotFound for keys they cannot resolve.
type Getter interface {
	GetString(key string) (string, error)
}

// Deps are the shared collaborators handed to every factory.
type Deps struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Factory reads its configuration keys and constructs one service client.
// It returns the service name together with the client.
type Factory func(env Getter, deps Deps) (string, any, error)

// Named pairs a factory with the service name it produces, so failures can be
// reported even when the factory returns no name.
type Named struct {
	Name    string
	Factory Factory
}

// Options controls Bind.
type Options struct {
	// Lenient logs and skips failing bindings instead of aborting.
	Lenient bool
	Metrics *metrics.Metrics
}

// Bind invokes each factory once and registers the result. In strict mode the
// first factory error is returned as-is.
func Bind(env Getter, deps Deps, opts Options, factories ...Named) (*Manager, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger

	manager := NewManager()
	for _, f := range factories {
		name, client, err := f.Factory(env, deps)
		if err == nil && name == "" {
			name = f.Name
		}
		if err == nil {
			err = manager.Register(name, client)
		}

		if err != nil {
			if !opts.Lenient {
				opts.Metrics.ObserveBinding(f.Name, metrics.OutcomeFailed)
				logger.Error("service binding failed", zap.String("service", f.Name), zap.Error(err))
				return nil, err
			}
			opts.Metrics.ObserveBinding(f.Name, metrics.OutcomeSkipped)
			logger.Warn("service binding skipped", zap.String("service", f.Name), zap.Error(err))
			continue
		}

		opts.Metrics.ObserveBinding(name, metrics.OutcomeBound)
		logger.Info("service bound", zap.String("service", name), zap.String("client", fmt.Sprintf("%T", client)))
	}

	opts.Metrics.SetBound(manager.Len())
	return manager, nil
}

// Optional resolves key and returns fallback when the key is absent or its
// value is empty. Other provider errors are returned unchanged.
func Optional(env Getter, key, fallback string) (string, error) {
	value, err := env.GetString(key)
	if err != nil {
		if errors.Is(err, cloudenv.ErrKeyNotFound) {
			return fallback, nil
		}
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// Require resolves each key in order and stops at the first error, which is
// returned unchanged.
func Require(env Getter, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := env.GetString(key)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, nil
}
