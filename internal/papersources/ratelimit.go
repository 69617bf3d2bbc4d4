package papersources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket guarding one upstream provider. It is safe
// for concurrent use because rate.Limiter is.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate; burst is the bucket size.
//
// Example configurations:
//   - PubMed without an API key: NewRateLimiter(3, 3)
//   - arXiv (one request every three seconds): NewRateLimiter(0.34, 1)
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
