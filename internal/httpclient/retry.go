package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrUpstreamStatus marks a 5xx response counted as a breaker failure.
var ErrUpstreamStatus = errors.New("upstream returned server error")

// RetryTransport implements http.RoundTripper with retries and optional
// per-host circuit breakers.
type RetryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
	breakers   *hostBreakers
	logger     *zap.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.breakers == nil {
		return t.roundTripWithRetry(req)
	}

	var resp *http.Response
	_, err := t.breakers.get(req.URL.Host).Execute(func() (interface{}, error) {
		var rtErr error
		resp, rtErr = t.roundTripWithRetry(req)
		if rtErr != nil {
			return nil, rtErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			// The response still goes back to the caller.
			return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		}
		return nil, nil
	})
	if resp != nil && errors.Is(err, ErrUpstreamStatus) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *RetryTransport) roundTripWithRetry(req *http.Request) (*http.Response, error) {
	attemptReq := req
	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if attempt >= t.maxRetries {
			return resp, err
		}

		next, rewindErr := rewind(req)
		if rewindErr != nil {
			return resp, err
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		wait := t.backoff * time.Duration(1<<uint(attempt))
		t.logger.Debug("retrying request",
			zap.String("method", req.Method),
			zap.String("host", req.URL.Host),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		attemptReq = next
	}
}

// rewind clones req with a fresh body. Requests whose body cannot be
// replayed are not retried.
func rewind(req *http.Request) (*http.Request, error) {
	cloned := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return cloned, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	cloned.Body = body
	return cloned, nil
}
