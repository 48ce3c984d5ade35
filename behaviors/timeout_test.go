package behaviors

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-interceptor/intercept"
)

func timeoutPipeline(marker intercept.Marker) *intercept.Pipeline {
	reg := intercept.NewRegistry()
	reg.MustRegister(NameTimeout, NewTimeout())
	return intercept.New(reg, intercept.NewDeclarations().DeclareMethod(getUser, marker))
}

func TestTimeout(t *testing.T) {
	p := timeoutPipeline(intercept.NewMarker(NameTimeout, "timeout", "20ms"))

	slow := func(ctx context.Context, _ []any) (any, error) {
		select {
		case <-time.After(time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	_, err := p.Execute(context.Background(), getUser, nil, slow)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the underlying deadline error to be kept")
	}
	assertErrorKind(t, err, goerrors.CategoryOperation, TextCodeTimeout)

	fast := func(context.Context, []any) (any, error) { return "ok", nil }
	if v, err := p.Execute(context.Background(), getUser, nil, fast); err != nil || v != "ok" {
		t.Errorf("expected ok, got %v (%v)", v, err)
	}
}

func TestTimeout_CallerCancellationIsNotATimeout(t *testing.T) {
	p := timeoutPipeline(intercept.NewMarker(NameTimeout, "timeout", "1s"))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Execute(ctx, getUser, nil, func(context.Context, []any) (any, error) {
		cancel()
		return nil, context.Canceled
	})
	if errors.Is(err, ErrTimeout) {
		t.Errorf("expected caller cancellation to pass through, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTimeout_ValidateMarker(t *testing.T) {
	to := NewTimeout()
	for _, m := range []intercept.Marker{
		intercept.NewMarker(NameTimeout),
		intercept.NewMarker(NameTimeout, "timeout", "0s"),
		intercept.NewMarker(NameTimeout, "timeout", "fast"),
	} {
		if err := to.ValidateMarker(m); err == nil {
			t.Errorf("expected %v to be rejected", m.Params)
		}
	}
	err := to.ValidateMarker(intercept.NewMarker(NameTimeout, "timeout", "-1s"))
	assertErrorKind(t, err, goerrors.CategoryValidation, TextCodeInvalidParam)
}
