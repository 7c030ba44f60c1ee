package resilience

import (
	"context"
	"time"
)

// Config is the declarative form of an Executor, as loaded from the
// client configuration. Zero values disable the pattern.
type Config struct {
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gte=0"`
	Burst         int           `mapstructure:"burst" validate:"gte=0"`
	MaxConcurrent int           `mapstructure:"max_concurrent" validate:"gte=0"`
	MaxWait       time.Duration `mapstructure:"max_wait" validate:"gte=0"`
	MaxFailures   int           `mapstructure:"max_failures" validate:"gte=0"`
	ResetTimeout  time.Duration `mapstructure:"reset_timeout" validate:"gte=0"`
}

// Executor composes the resilience patterns.
type Executor struct {
	circuitBreaker *CircuitBreaker
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor. Without options it runs
// operations unchanged.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExecutorFromConfig builds an Executor from cfg. name labels the
// circuit breaker; onChange may be nil.
func NewExecutorFromConfig(name string, cfg Config, onChange func(name string, from, to State), isFailure func(error) bool) *Executor {
	var opts []ExecutorOption
	if cfg.RateLimit > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:        cfg.RateLimit,
			Burst:       cfg.Burst,
			WaitOnLimit: cfg.MaxWait > 0,
			MaxWait:     cfg.MaxWait,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, WithBulkhead(NewBulkhead(BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})))
	}
	if cfg.MaxFailures > 0 {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
			Name:          name,
			MaxFailures:   cfg.MaxFailures,
			ResetTimeout:  cfg.ResetTimeout,
			OnStateChange: onChange,
			IsFailure:     isFailure,
		})))
	}
	return NewExecutor(opts...)
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker { return e.circuitBreaker }

// Execute runs op through the configured patterns.
//
// The execution order is:
// 1. Rate Limiter (if configured) - limits call rate
// 2. Bulkhead (if configured) - limits concurrency
// 3. Circuit Breaker (if configured) - stops calling a failing backend
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
