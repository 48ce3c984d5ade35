package behaviors

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/goliatone/go-interceptor/intercept"
)

const tracerName = "github.com/goliatone/go-interceptor/behaviors"

type correlationKey struct{}

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Activity opens a correlation scope around the rest of the chain. It makes
// sure ctx carries a correlation id, starts a span named after the marker's
// "name" param (default: the method), and ends the span however the chain
// finishes. It never short-circuits.
type Activity struct {
	tracer trace.Tracer
}

// NewActivity creates the activity behavior. A nil provider disables spans
// but correlation ids are still assigned.
func NewActivity(provider trace.TracerProvider) *Activity {
	if provider == nil {
		provider = noop.NewTracerProvider()
	}
	return &Activity{tracer: provider.Tracer(tracerName)}
}

func (a *Activity) Order() int { return OrderActivity }

func (a *Activity) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	id := CorrelationID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithCorrelationID(ctx, id)
	}

	method := call.Method()
	name := call.Marker().String("name", method.String())
	ctx, span := a.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("intercept.type", method.Type),
		attribute.String("intercept.method", method.Method),
		attribute.String("correlation.id", id),
	))
	defer span.End()

	err := next(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !call.TargetReached() {
		span.SetAttributes(attribute.Bool("intercept.short_circuit", true))
	}
	return nil
}
