package behaviors

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-interceptor/intercept"
)

func activityPipeline(provider trace.TracerProvider, markers ...intercept.Marker) *intercept.Pipeline {
	reg := intercept.NewRegistry()
	reg.MustRegister(NameActivity, NewActivity(provider))
	return intercept.New(reg, intercept.NewDeclarations().DeclareMethod(getUser, markers...))
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestActivity_SpanAndCorrelation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	p := activityPipeline(provider, intercept.NewMarker(NameActivity, "name", "load-user"))

	var seenID string
	_, err := p.Execute(context.Background(), getUser, nil, func(ctx context.Context, _ []any) (any, error) {
		seenID = CorrelationID(ctx)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenID == "" {
		t.Fatal("expected a correlation id inside the scope")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name != "load-user" {
		t.Errorf("expected span name from marker, got %s", spans[0].Name)
	}
	if v, ok := spanAttr(spans[0], "correlation.id"); !ok || v.AsString() != seenID {
		t.Errorf("expected correlation id attribute %s, got %v", seenID, v.AsString())
	}
	if v, ok := spanAttr(spans[0], "intercept.method"); !ok || v.AsString() != "Get" {
		t.Errorf("expected method attribute, got %v", v.AsString())
	}
}

func TestActivity_KeepsExistingCorrelationID(t *testing.T) {
	p := activityPipeline(nil, intercept.NewMarker(NameActivity))

	var seenID string
	ctx := WithCorrelationID(context.Background(), "req-1")
	_, err := p.Execute(ctx, getUser, nil, func(ctx context.Context, _ []any) (any, error) {
		seenID = CorrelationID(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenID != "req-1" {
		t.Errorf("expected caller correlation id, got %q", seenID)
	}
}

func TestActivity_EndsSpanOnFailure(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	p := activityPipeline(provider, intercept.NewMarker(NameActivity))

	boom := errors.New("database down")
	_, err := p.Execute(context.Background(), getUser, nil, func(context.Context, []any) (any, error) {
		return nil, boom
	})
	if err != boom {
		t.Fatalf("expected error unchanged, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected the span to be ended, got %d spans", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded")
	}
}

func TestActivity_MarksShortCircuit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	reg := intercept.NewRegistry()
	reg.MustRegister(NameActivity, NewActivity(provider))
	reg.MustRegister("stub", intercept.NewBehaviorFunc(10, func(ctx context.Context, call *intercept.Call, next intercept.Next) error {
		return call.SetReturnValue("stubbed")
	}))
	p := intercept.New(reg, intercept.NewDeclarations().DeclareMethod(getUser,
		intercept.NewMarker(NameActivity), intercept.NewMarker("stub")))

	if _, err := p.Execute(context.Background(), getUser, nil, func(context.Context, []any) (any, error) {
		return "real", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if v, ok := spanAttr(spans[0], "intercept.short_circuit"); !ok || !v.AsBool() {
		t.Error("expected short circuit attribute")
	}
}
