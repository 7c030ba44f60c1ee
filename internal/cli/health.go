package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/health"
	"github.com/jonwraymond/storefront/session"
)

var errUnhealthy = errors.New("storefront is unhealthy")

func newHealthCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend, session store and circuit breakers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := g.app.healthChecks()
			report := agg.Report(cmd.Context())

			rows := make([][]string, 0, len(report.Checks))
			for _, c := range report.Checks {
				msg := c.Message
				if msg == "" && c.Error != nil {
					msg = c.Error.Error()
				}
				rows = append(rows, []string{c.Name, statusText(c.Status, g.useColor), orDash(msg), c.Duration.Round(time.Microsecond).String()})
			}
			renderTable(g.out, []string{"NAME", "STATUS", "MESSAGE", "DURATION"}, rows)
			fmt.Fprintf(g.out, "\noverall: %s\n", statusText(report.Status, g.useColor))

			if report.Status == health.StatusUnhealthy {
				return errUnhealthy
			}
			return nil
		},
	}
}

func (a *app) healthChecks() *health.Aggregator {
	agg := health.NewAggregator(health.AggregatorConfig{Timeout: a.cfg.Health.Timeout})
	agg.Register("backend", health.NewPingChecker("backend", a.clients.Shopper.Ping))
	if a.redis != nil {
		agg.Register("redis", health.NewRedisChecker(a.redis))
	}
	for _, actor := range session.Actors {
		client, _ := a.clients.For(actor)
		c := health.NewCircuitChecker(string(actor), client.Executor().CircuitBreaker())
		agg.Register(c.Name(), c)
	}
	return agg
}
