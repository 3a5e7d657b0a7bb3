package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/domain/navigation"
)

var orderCount int

var orderCmd = &cobra.Command{
	Use:   "order <id>",
	Short: "Order a product",
	Long: `Order a product with the stored session.

Without a session you are sent to the login screen and nothing is ordered.
If the server reports the session as expired you have to log in again.

Examples:
  storefront order 1
  storefront order 1 --count 3`,
	Args: cobra.ExactArgs(1),
	RunE: runOrder,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List your orders",
	Args:  cobra.NoArgs,
	RunE:  runOrders,
}

func init() {
	orderCmd.Flags().IntVarP(&orderCount, "count", "n", 1, "number of units to order")
	rootCmd.AddCommand(orderCmd, ordersCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	id, err := parseProductID(args[0])
	if err != nil {
		return err
	}
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		return notified(sf.shell.PlaceOrder(ctx, id, orderCount))
	})
}

func runOrders(cmd *cobra.Command, args []string) error {
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		return notified(sf.shell.Open(ctx, navigation.PathOrders))
	})
}
