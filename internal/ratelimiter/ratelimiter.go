package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// unlimited is the rate used when the caller asks for no limit.
const unlimited = 1_000_000_000

// RateLimiter paces outgoing RPC attempts with a token bucket.
//
// It wraps golang.org/x/time/rate. Each attempt takes one token. Tokens are
// refilled at the configured attempts-per-second rate, and up to burst
// attempts may go out back to back.
//
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing attemptsPerSecond sustained attempts
// with the given burst.
//
// attemptsPerSecond = 0 disables pacing. A burst of 0 is raised to 1, since a
// bucket that holds no tokens would block every attempt forever.
func New(attemptsPerSecond, burst uint) *RateLimiter {
	if attemptsPerSecond == 0 {
		attemptsPerSecond = unlimited
		burst = attemptsPerSecond
	}
	if burst == 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(attemptsPerSecond), int(burst)),
	}
}

// Wait blocks until a token is available or ctx is done.
//
// Returns the context error when ctx is cancelled first, or when its
// deadline falls before the token would become available.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Delay reports how long a Wait called now would block. The bucket is only
// inspected; no token is taken.
func (r *RateLimiter) Delay() time.Duration {
	limit := r.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}

	tokens := r.limiter.Tokens()
	if tokens >= 1 {
		return 0
	}
	if limit <= 0 {
		return rate.InfDuration
	}

	return time.Duration((1 - tokens) / float64(limit) * float64(time.Second))
}
