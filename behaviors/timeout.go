package behaviors

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-interceptor/intercept"
)

// Timeout runs the rest of the chain under a deadline taken from the
// "timeout" param. The chain runs on the caller's goroutine and is never
// abandoned: downstream code must observe ctx. When the deadline expires
// the error is reported as ErrTimeout.
type Timeout struct{}

// NewTimeout creates the timeout behavior.
func NewTimeout() *Timeout { return &Timeout{} }

func (t *Timeout) Order() int { return OrderTimeout }

// ValidateMarker requires a positive timeout.
func (t *Timeout) ValidateMarker(m intercept.Marker) error {
	d, err := m.Duration("timeout", 0)
	if err != nil {
		return err
	}
	if d <= 0 {
		return invalidParam(NameTimeout, "timeout", fmt.Sprintf("timeout must be positive, got %s", d))
	}
	return nil
}

func (t *Timeout) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	d, _ := call.Marker().Duration("timeout", 0)
	if d <= 0 {
		return next(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := next(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return callFailure(ErrTimeout, err, goerrors.CategoryOperation, TextCodeTimeout,
			fmt.Sprintf("%s timed out after %s", call.Method(), d),
			map[string]any{"method": call.Method().String(), "timeout": d.String()})
	}
	return err
}
