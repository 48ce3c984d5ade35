package behaviors

import (
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-interceptor/cache"
	"github.com/goliatone/go-interceptor/intercept"
)

// Behavior names as used in markers.
const (
	NameCache     = "cache"
	NameActivity  = "activity"
	NameEnvelope  = "envelope"
	NameLogging   = "logging"
	NameMetrics   = "metrics"
	NameRateLimit = "ratelimit"
	NameTimeout   = "timeout"
)

// Default orders.
const (
	OrderMetrics   = -30
	OrderLogging   = -20
	OrderRateLimit = -15
	OrderTimeout   = -10
	OrderEnvelope  = -5
	OrderCache     = -2
	OrderActivity  = 0
)

var (
	// ErrRateLimited is returned when a rate limited call is rejected.
	ErrRateLimited = errors.New("behaviors: rate limit exceeded")
	// ErrTimeout is returned when a call outlives its timeout marker.
	ErrTimeout = errors.New("behaviors: call timed out")
)

// Text codes attached to behavior errors.
const (
	TextCodeRateLimited  = "RATE_LIMITED"
	TextCodeTimeout      = "TIMEOUT"
	TextCodeInvalidParam = "INVALID_PARAM"
)

// invalidParam reports a marker param a behavior cannot use.
func invalidParam(behavior, param, message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(TextCodeInvalidParam).
		WithMetadata(map[string]any{"behavior": behavior, "param": param})
}

// callFailure builds a runtime behavior error. It unwraps to sentinel and,
// when set, to cause.
func callFailure(sentinel, cause error, category goerrors.Category, code, message string, meta map[string]any) error {
	e := goerrors.New(message, category).WithTextCode(code).WithMetadata(meta)
	e.Source = sentinel
	if cause != nil {
		e.Source = errors.Join(sentinel, cause)
	}
	return e
}

// Dependencies are the collaborators the built-in behaviors need.
type Dependencies struct {
	// Store enables the cache behavior.
	Store cache.Store
	// Serializer renders cache keys. Defaults to the reflection serializer.
	Serializer cache.KeySerializer
	// LookupTimeout bounds cache reads.
	LookupTimeout time.Duration

	Logger *zap.Logger
	// TracerProvider backs the activity behavior. Defaults to a no-op provider.
	TracerProvider trace.TracerProvider
	// Registerer enables the metrics behavior.
	Registerer prometheus.Registerer
}

// RegisterBuiltins registers the built-in behaviors into r. The cache
// behavior needs a Store and the metrics behavior a Registerer; they are
// skipped without them.
func RegisterBuiltins(r *intercept.Registry, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	behaviors := map[string]intercept.Behavior{
		NameActivity:  NewActivity(deps.TracerProvider),
		NameEnvelope:  NewEnvelope(),
		NameLogging:   NewLogging(logger),
		NameRateLimit: NewRateLimit(),
		NameTimeout:   NewTimeout(),
	}

	if deps.Store != nil {
		behaviors[NameCache] = NewCache(deps.Store,
			WithSerializer(deps.Serializer),
			WithLookupTimeout(deps.LookupTimeout),
			WithCacheLogger(logger),
		)
	}

	if deps.Registerer != nil {
		metrics, err := NewMetrics(deps.Registerer)
		if err != nil {
			return err
		}
		behaviors[NameMetrics] = metrics
	}

	for _, name := range []string{NameMetrics, NameLogging, NameRateLimit, NameTimeout, NameEnvelope, NameCache, NameActivity} {
		b, ok := behaviors[name]
		if !ok {
			continue
		}
		if err := r.Register(name, b); err != nil {
			return err
		}
	}
	return nil
}
