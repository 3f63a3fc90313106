package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Allow() bool
}

// retryHinter is implemented by limiters that can estimate when the next
// request will be admitted.
type retryHinter interface {
	RetryAfter() time.Duration
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (l *limiterAdapter) Allow() bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// RetryAfter reports how long until one token is available again.
func (l *limiterAdapter) RetryAfter() time.Duration {
	if l == nil || l.limiter == nil {
		return 0
	}
	missing := 1 - l.limiter.Tokens()
	limit := float64(l.limiter.Limit())
	if missing <= 0 || limit <= 0 {
		return 0
	}
	return time.Duration(missing / limit * float64(time.Second))
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter)))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}

// retryAfterSeconds rounds the limiter's hint up to whole seconds, at least one.
func retryAfterSeconds(limiter rateLimiter) int {
	hinter, ok := limiter.(retryHinter)
	if !ok {
		return 1
	}
	secs := int(math.Ceil(hinter.RetryAfter().Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
