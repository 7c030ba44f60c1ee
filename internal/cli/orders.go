package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/storefront/api"
	"github.com/jonwraymond/storefront/session"
	"github.com/jonwraymond/storefront/shop"
)

func newOrdersCommand(g *globals) *cobra.Command {
	var q api.OrderQuery
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List orders for the shopper or vendor given by --as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := orderActor(g)
			if err != nil {
				return err
			}
			if err := g.app.requireSession(ctx, actor); err != nil {
				return err
			}

			var list *api.OrderList
			if actor == session.ActorVendor {
				svc, err := g.app.vendor()
				if err != nil {
					return err
				}
				list, err = svc.Orders(ctx, q)
				if err != nil {
					return err
				}
			} else {
				svc, err := g.app.shopper()
				if err != nil {
					return err
				}
				list, err = svc.Orders(ctx, q)
				if err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(list.Orders))
			for _, o := range list.Orders {
				rows = append(rows, []string{o.ID, o.Status, strconv.Itoa(len(o.Items)), money(o.Total), when(o.CreatedAt)})
			}
			renderTable(g.out, []string{"ID", "STATUS", "ITEMS", "TOTAL", "PLACED"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Status, "status", "", "only orders with this status")
	cmd.Flags().IntVar(&q.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size")
	cmd.AddCommand(newOrderShowCommand(g), newOrderStatusCommand(g))
	return cmd
}

func newOrderShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := orderActor(g)
			if err != nil {
				return err
			}
			if err := g.app.requireSession(ctx, actor); err != nil {
				return err
			}

			var o *api.Order
			if actor == session.ActorVendor {
				svc, err := g.app.vendor()
				if err != nil {
					return err
				}
				o, err = svc.Order(ctx, args[0])
				if err != nil {
					return err
				}
			} else {
				svc, err := g.app.shopper()
				if err != nil {
					return err
				}
				o, err = svc.Order(ctx, args[0])
				if err != nil {
					return err
				}
			}
			printOrder(g, o)
			return nil
		},
	}
}

func newOrderStatusCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <sku> <status>",
		Short: "Update the status of one order line (vendor)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := g.app.requireSession(ctx, session.ActorVendor); err != nil {
				return err
			}
			svc, err := g.app.vendor()
			if err != nil {
				return err
			}
			o, err := svc.UpdateOrderStatus(ctx, shop.StatusUpdate{OrderID: args[0], SKU: args[1], Status: args[2]})
			if err != nil {
				return err
			}
			printOrder(g, o)
			return nil
		},
	}
}

func orderActor(g *globals) (session.Actor, error) {
	actor, err := g.actorFlag()
	if err != nil {
		return "", err
	}
	if actor == session.ActorAdmin {
		return "", fmt.Errorf("orders are listed for the shopper or vendor, not %s", actor)
	}
	return actor, nil
}

func printOrder(g *globals, o *api.Order) {
	if o == nil {
		return
	}
	fmt.Fprintf(g.out, "Order %s  %s  total %s\n\n", o.ID, o.Status, money(o.Total))
	rows := make([][]string, 0, len(o.Items))
	for _, it := range o.Items {
		rows = append(rows, []string{it.SKU, orDash(it.Name), strconv.Itoa(it.Quantity), money(it.Price), orDash(it.Status)})
	}
	renderTable(g.out, []string{"SKU", "NAME", "QTY", "PRICE", "STATUS"}, rows)
}
