package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/guard"
)

func newVisitCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "visit <path>",
		Short: "Navigate to a page through the route guards",
		Long: `Run the route guards for a page the way the storefront does on
navigation and print where the user ends up. Protected pages confirm the
session with the server when it is missing or expired.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := g.app.router.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			landed, err := g.app.router.Visit(ctx, args[0])
			if errors.Is(err, guard.ErrRedirectLoop) {
				return fmt.Errorf("cannot reach %s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			if d.Allow {
				fmt.Fprintf(g.out, "%s (%s)\n", landed, d.Reason)
				return nil
			}
			fmt.Fprintf(g.out, "%s -> %s (%s)\n", args[0], landed, d.Reason)
			return nil
		},
	}
}
