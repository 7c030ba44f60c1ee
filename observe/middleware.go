package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the unit of work wrapped by Middleware.
type ExecuteFunc func(ctx context.Context) error

// Middleware wraps operations with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// NopMiddleware returns a Middleware backed by NopObserver.
func NopMiddleware() *Middleware {
	mw, _ := MiddlewareFromObserver(NopObserver())
	return mw
}

// Run executes fn inside a span, records its duration and outcome, and
// logs a completion line. Successful operations log at debug level.
func (m *Middleware) Run(ctx context.Context, meta OperationMeta, fn ExecuteFunc) error {
	if meta.Name == "" {
		return ErrMissingOperationName
	}

	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordOperation(ctx, meta, duration, err)

	fields := append(meta.Fields(), F("duration_ms", float64(duration.Microseconds())/1000))
	if err != nil {
		fields = append(fields, F("error", err))
		m.logger.Warn(ctx, "operation failed", fields...)
	} else {
		m.logger.Debug(ctx, "operation completed", fields...)
	}
	return err
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}
