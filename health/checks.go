package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/storefront/resilience"
)

// NewPingChecker reports healthy when ping succeeds.
func NewPingChecker(name string, ping func(ctx context.Context) error) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Unhealthy(fmt.Sprintf("%s unreachable", name), err)
		}
		return Healthy(fmt.Sprintf("%s reachable", name))
	})
}

// NewRedisChecker pings a Redis session backend.
func NewRedisChecker(client redis.Cmdable) Checker {
	return NewCheckerFunc("redis", func(ctx context.Context) Result {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			return Unhealthy("redis ping failed", err)
		}
		return Healthy("redis reachable").WithDetails(map[string]any{"reply": pong})
	})
}

// NewCircuitChecker reports the state of a circuit breaker: closed is
// healthy, half-open degraded and open unhealthy. A nil breaker is
// reported healthy.
func NewCircuitChecker(name string, cb *resilience.CircuitBreaker) Checker {
	return NewCheckerFunc(name+"-circuit", func(context.Context) Result {
		if cb == nil {
			return Healthy("no circuit breaker configured")
		}
		m := cb.Metrics()
		details := map[string]any{
			"state":    m.State.String(),
			"failures": m.Failures,
		}
		switch m.State {
		case resilience.StateOpen:
			return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
		case resilience.StateHalfOpen:
			return Degraded("circuit probing").WithDetails(details)
		default:
			return Healthy("circuit closed").WithDetails(details)
		}
	})
}
