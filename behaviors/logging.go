package behaviors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-interceptor/intercept"
)

// Logging logs the start and outcome of a call with its duration.
//
// Marker params:
//
//	level  string  level for start and success entries (default "debug")
//	args   bool    include the call arguments
//
// Failures are always logged at error level.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates the logging behavior.
func NewLogging(logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{logger: logger}
}

func (l *Logging) Order() int { return OrderLogging }

// ValidateMarker checks the level and args params.
func (l *Logging) ValidateMarker(m intercept.Marker) error {
	if _, err := zapcore.ParseLevel(m.String("level", "debug")); err != nil {
		return err
	}
	_, err := m.Bool("args", false)
	return err
}

func (l *Logging) Invoke(ctx context.Context, call *intercept.Call, next intercept.Next) error {
	m := call.Marker()
	level, err := zapcore.ParseLevel(m.String("level", "debug"))
	if err != nil {
		level = zapcore.DebugLevel
	}

	fields := []zap.Field{zap.Stringer("method", call.Method())}
	if id := CorrelationID(ctx); id != "" {
		fields = append(fields, zap.String("correlation_id", id))
	}
	if withArgs, _ := m.Bool("args", false); withArgs {
		fields = append(fields, zap.Any("args", call.Args()))
	}
	log := l.logger.With(fields...)

	log.Log(level, "call started")
	start := time.Now()

	err = next(ctx)

	dur := time.Since(start)
	if err != nil {
		log.Error("call failed", zap.Duration("duration", dur), zap.Error(err))
		return err
	}
	log.Log(level, "call finished",
		zap.Duration("duration", dur),
		zap.Bool("short_circuit", !call.TargetReached()),
	)
	return nil
}
