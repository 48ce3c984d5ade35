package behaviors

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-interceptor/intercept"
)

// RateLimit applies a token bucket per method.
//
// Marker params:
//
//	rps    float  sustained calls per second (required)
//	burst  int    bucket size (default 1)
//	wait   bool   wait for a token instead of rejecting
//
// A rejected call short-circuits with ErrRateLimited.
type RateLimit struct {
	limiters *xsync.MapOf[intercept.MethodID, *rate.Limiter]
}

// NewRateLimit creates the rate limit behavior.
func NewRateLimit() *RateLimit {
	return &RateLimit{limiters: xsync.NewMapOf[intercept.MethodID, *rate.Limiter]()}
}

func (r *RateLimit) Order() int { return OrderRateLimit }

// ValidateMarker requires a positive rps and burst.
func (r *RateLimit) ValidateMarker(m intercept.Marker) error {
	if !m.Has("rps") {
		return invalidParam(NameRateLimit, "rps", "rps is required")
	}
	rps, err := m.Float("rps", 0)
	if err != nil {
		return err
	}
	if rps <= 0 {
		return invalidParam(NameRateLimit, "rps", fmt.Sprintf("rps must be positive, got %v", rps))
	}
	burst, err := m.Int("burst", 1)
	if err != nil {
		return err
	}
	if burst < 1 {
		return invalidParam(NameRateLimit, "burst", fmt.Sprintf("burst must be at least 1, got %d", burst))
	}
	_, err = m.Bool("wait", false)
	return err
}

func (r *RateLimit) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	m := call.Marker()
	limiter, _ := r.limiters.LoadOrCompute(call.Method(), func() *rate.Limiter {
		rps, _ := m.Float("rps", 1)
		burst, _ := m.Int("burst", 1)
		return rate.NewLimiter(rate.Limit(rps), burst)
	})

	if wait, _ := m.Bool("wait", false); wait {
		if err := limiter.Wait(ctx); err != nil {
			return rateLimited(call.Method(), err)
		}
		return next(ctx)
	}

	if !limiter.Allow() {
		return rateLimited(call.Method(), nil)
	}
	return next(ctx)
}

func rateLimited(method intercept.MethodID, cause error) error {
	return callFailure(ErrRateLimited, cause, goerrors.CategoryRateLimit, TextCodeRateLimited,
		fmt.Sprintf("rate limit exceeded for %s", method),
		map[string]any{"method": method.String()})
}
