// Package cli implements the storefront command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/config"
	"github.com/jonwraymond/storefront/session"
)

// globals holds the persistent flags and the wired application of one
// invocation.
type globals struct {
	version  string
	cfgFile  string
	colors   string
	verbose  bool
	actor    string
	app      *app
	out      io.Writer
	errOut   io.Writer
	useColor bool
}

// NewRootCommand builds the storefront command tree.
func NewRootCommand(version string) *cobra.Command {
	g := &globals{version: version}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client",
		Long: `storefront signs in to the storefront backend as a shopper, vendor or
admin and works with carts, orders and vendors from the terminal.

Sessions persist between runs, one per actor.

Example usage:
  storefront login --as shopper        # credentials from STOREFRONT_SHOPPER_*
  storefront cart add --product P1 --sku S1 --qty 2
  storefront orders --as vendor
  storefront vendors block V1
  storefront visit /checkout           # run the route guards
  storefront health`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}
			return g.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.app == nil {
				return nil
			}
			return g.app.close(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "config file (default is ./storefront.yaml or ~/.storefront/storefront.yaml)")
	root.PersistentFlags().StringVar(&g.colors, "color", "auto", "color output: auto, always or never")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&g.actor, "as", string(session.ActorShopper), "actor: shopper, vendor or admin")

	root.AddCommand(
		newLoginCommand(g),
		newLogoutCommand(g),
		newWhoamiCommand(g),
		newVisitCommand(g),
		newCartCommand(g),
		newOrdersCommand(g),
		newVendorsCommand(g),
		newHealthCommand(g),
		newVersionCommand(g),
	)
	return root
}

func (g *globals) init(cmd *cobra.Command) error {
	g.out = cmd.OutOrStdout()
	g.errOut = cmd.ErrOrStderr()

	mode, err := parseColorMode(g.colors)
	if err != nil {
		return err
	}
	g.useColor = resolveColors(mode)

	cfg, err := config.Load(config.NewViper(g.cfgFile))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if g.verbose {
		cfg.Observe.LogLevel = "debug"
	}

	g.app, err = newApp(cmd.Context(), cfg, g.version, g.out, g.errOut, g.useColor)
	return err
}

func (g *globals) actorFlag() (session.Actor, error) {
	return session.ParseActor(g.actor)
}

func newVersionCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "storefront", g.version)
		},
	}
}
