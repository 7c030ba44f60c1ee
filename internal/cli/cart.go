package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/session"
)

func newCartCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the shopper's cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorShopper); err != nil {
				return err
			}
			svc, err := g.app.shopper()
			if err != nil {
				return err
			}
			cart, err := svc.Cart(ctx)
			if err != nil {
				return err
			}
			printCart(g, cart, svc.Counter().Count())
			return nil
		},
	}
	cmd.AddCommand(newCartAddCommand(g), newCartRemoveCommand(g))
	return cmd
}

func newCartAddCommand(g *globals) *cobra.Command {
	var req api.AddToCartRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product variant to the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorShopper); err != nil {
				return err
			}
			svc, err := g.app.shopper()
			if err != nil {
				return err
			}
			cart, err := svc.AddToCart(ctx, req)
			if err != nil {
				return err
			}
			printCart(g, cart, svc.Counter().Count())
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ProductID, "product", "", "product id")
	cmd.Flags().StringVar(&req.SKU, "sku", "", "variant sku")
	cmd.Flags().IntVar(&req.Quantity, "qty", 1, "quantity")
	return cmd
}

func newCartRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sku>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorShopper); err != nil {
				return err
			}
			svc, err := g.app.shopper()
			if err != nil {
				return err
			}
			cart, err := svc.RemoveFromCart(ctx, args[0])
			if err != nil {
				return err
			}
			printCart(g, cart, svc.Counter().Count())
			return nil
		},
	}
}

func printCart(g *globals, cart *api.Cart, count int) {
	if cart == nil || len(cart.Items) == 0 {
		fmt.Fprintln(g.out, "Cart is empty")
		return
	}
	rows := make([][]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		rows = append(rows, []string{it.SKU, orDash(it.Name), strconv.Itoa(it.Quantity), money(it.Price)})
	}
	renderTable(g.out, []string{"SKU", "NAME", "QTY", "PRICE"}, rows)
	fmt.Fprintf(g.out, "\n%d item(s), total %s\n", count, money(cart.Total))
}
