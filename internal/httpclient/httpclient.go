// Package httpclient builds the outbound HTTP client shared by every service
// binding. Requests are retried on transport errors and 5xx responses with
// exponential backoff, and an optional circuit breaker per upstream host stops
// calls to a host that keeps failing.
package httpclient

import (
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Options configures the client behaviour.
type Options struct {
	Timeout          time.Duration // Request timeout (default: 30s)
	MaxRetries       int           // Retry attempts after the first try (default: 2)
	RetryBackoff     time.Duration // Initial backoff (default: 100ms)
	EnableCircuit    bool          // Circuit breaker on/off (default: true)
	CircuitThreshold uint32        // Consecutive failures before the breaker opens (default: 5)
	CircuitOpenFor   time.Duration // Time the breaker stays open (default: 60s)
	Logger           *zap.Logger
	Base             http.RoundTripper
}

// Option is a functional option for configuring the client.
type Option func(*Options)

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRetry sets the number of retries after the first attempt.
func WithRetry(maxRetries int) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
	}
}

// WithBackoff sets the initial retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(o *Options) {
		o.RetryBackoff = d
	}
}

// WithCircuitBreaker enables or disables the circuit breaker.
func WithCircuitBreaker(enabled bool, threshold uint32) Option {
	return func(o *Options) {
		o.EnableCircuit = enabled
		if threshold > 0 {
			o.CircuitThreshold = threshold
		}
	}
}

// WithLogger logs retries and breaker state changes.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBaseTransport replaces http.DefaultTransport, mostly for tests.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.Base = rt
	}
}

// New creates the shared HTTP client.
func New(opts ...Option) *http.Client {
	options := Options{
		Timeout:          30 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     100 * time.Millisecond,
		EnableCircuit:    true,
		CircuitThreshold: 5,
		CircuitOpenFor:   60 * time.Second,
		Base:             http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Base == nil {
		options.Base = http.DefaultTransport
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}

	var breakers *hostBreakers
	if options.EnableCircuit {
		breakers = newHostBreakers(options.CircuitThreshold, options.CircuitOpenFor, options.Logger)
	}

	return &http.Client{
		Timeout: options.Timeout,
		Transport: &RetryTransport{
			base:       options.Base,
			maxRetries: options.MaxRetries,
			backoff:    options.RetryBackoff,
			breakers:   breakers,
			logger:     options.Logger,
		},
	}
}

// hostBreakers keeps one circuit breaker per upstream host, so a failing
// service does not block the others sharing the client.
type hostBreakers struct {
	mu       sync.Mutex
	byHost   map[string]*gobreaker.CircuitBreaker
	settings gobreaker.Settings
}

func newHostBreakers(threshold uint32, openFor time.Duration, logger *zap.Logger) *hostBreakers {
	return &hostBreakers{
		byHost: make(map[string]*gobreaker.CircuitBreaker),
		settings: gobreaker.Settings{
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		},
	}
}

// get returns the breaker for host, creating it on first use.
func (b *hostBreakers) get(host string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	cb, ok := b.byHost[host]
	if !ok {
		settings := b.settings
		settings.Name = host
		cb = gobreaker.NewCircuitBreaker(settings)
		b.byHost[host] = cb
	}
	return cb
}
