package cli

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/session"
)

func newVendorsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "List vendors (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorAdmin); err != nil {
				return err
			}
			svc, err := g.app.admin()
			if err != nil {
				return err
			}
			list, err := svc.Vendors(ctx)
			if err != nil {
				return err
			}
			printVendors(g, list.Vendors...)
			return nil
		},
	}
	cmd.AddCommand(newVendorBlockCommand(g, true), newVendorBlockCommand(g, false))
	return cmd
}

func newVendorBlockCommand(g *globals, block bool) *cobra.Command {
	use, short := "block <id>", "Block a vendor"
	if !block {
		use, short = "unblock <id>", "Unblock a vendor"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorAdmin); err != nil {
				return err
			}
			svc, err := g.app.admin()
			if err != nil {
				return err
			}
			var v *api.Vendor
			if block {
				v, err = svc.BlockVendor(ctx, args[0])
			} else {
				v, err = svc.UnblockVendor(ctx, args[0])
			}
			if err != nil {
				return err
			}
			printVendors(g, *v)
			return nil
		},
	}
}

func printVendors(g *globals, vendors ...api.Vendor) {
	rows := make([][]string, 0, len(vendors))
	for _, v := range vendors {
		state := "active"
		if v.Blocked {
			state = "blocked"
		}
		rows = append(rows, []string{v.ID, orDash(v.Name), orDash(v.Email), state})
	}
	renderTable(g.out, []string{"ID", "NAME", "EMAIL", "STATE"}, rows)
}
