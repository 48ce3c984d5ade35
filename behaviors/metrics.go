package behaviors

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-interceptor/intercept"
)

// Call outcomes recorded by the metrics behavior.
const (
	StatusOK           = "ok"
	StatusError        = "error"
	StatusShortCircuit = "short_circuit"
)

// Metrics counts calls by method and outcome and observes their latency.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier instance are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercept_calls_total",
			Help: "Total number of intercepted calls",
		},
		[]string{"method", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intercept_call_duration_seconds",
			Help:    "Latency of intercepted calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	var err error
	if calls, err = register(reg, calls); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{calls: calls, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) Order() int { return OrderMetrics }

func (m *Metrics) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	start := time.Now()
	err := next(ctx)

	method := call.Method().String()
	status := StatusOK
	switch {
	case err != nil:
		status = StatusError
	case !call.TargetReached():
		status = StatusShortCircuit
	}

	m.calls.WithLabelValues(method, status).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return err
}
