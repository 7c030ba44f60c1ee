// Package resilience protects the storefront backend from its own client.
//
// Every REST call made by an actor client passes through an Executor that
// composes, from the outside in:
//
//   - Rate Limiter: a token bucket (golang.org/x/time/rate) that bounds the
//     request rate of one client.
//   - Bulkhead: a weighted semaphore that bounds concurrent calls.
//   - Circuit Breaker: stops calling a backend that keeps failing and probes
//     it again after a cool-down.
//
// Nothing here retries or times out a call. A retry of a write (such as a
// payment retry) is always an explicit user action, and calls run until the
// backend answers or the caller's context ends.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 20, Burst: 5})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return client.Do(ctx, req)
//	})
package resilience
