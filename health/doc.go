// Package health reports whether the storefront client can reach what it
// depends on: the REST backend of each actor, the session backend, and
// the circuit breakers guarding them.
//
//	agg := health.NewAggregator()
//	agg.Register("backend", health.NewPingChecker("backend", client.Ping))
//	agg.Register("sessions", health.NewRedisChecker(rdb))
//	agg.Register("shopper-circuit", health.NewCircuitChecker("shopper", exec.CircuitBreaker()))
//
//	report := agg.Report(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    ...
//	}
package health
