package behaviors

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-interceptor/intercept"
)

// Envelope is the response shape produced by the envelope behavior.
type Envelope struct {
	Success bool   `json:"success" msgpack:"success"`
	Data    any    `json:"data,omitempty" msgpack:"data,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
	Code    string `json:"code,omitempty" msgpack:"code,omitempty"`
}

// EnvelopeBehavior wraps the return value in an Envelope after next
// completes. With the "wrap_errors" param set, errors become failed
// envelopes instead of propagating. Callers of typed helpers must ask for
// Envelope (or any) as the result type.
type EnvelopeBehavior struct{}

// NewEnvelope creates the envelope behavior.
func NewEnvelope() *EnvelopeBehavior { return &EnvelopeBehavior{} }

func (e *EnvelopeBehavior) Order() int { return OrderEnvelope }

// ValidateMarker checks that wrap_errors is a boolean.
func (e *EnvelopeBehavior) ValidateMarker(m intercept.Marker) error {
	_, err := m.Bool("wrap_errors", false)
	return err
}

func (e *EnvelopeBehavior) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	err := next(ctx)
	if err != nil {
		wrap, _ := call.Marker().Bool("wrap_errors", false)
		if !wrap {
			return err
		}
		return call.SetReturnValue(Envelope{Error: err.Error(), Code: textCode(err)})
	}

	if _, ok := call.ReturnValue().(Envelope); ok {
		return nil
	}
	return call.SetReturnValue(Envelope{Success: true, Data: call.ReturnValue()})
}

func textCode(err error) string {
	var e *goerrors.Error
	if errors.As(err, &e) {
		return e.TextCode
	}
	return ""
}
