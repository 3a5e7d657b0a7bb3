package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/domain/navigation"
)

var (
	productsOutput string
	productOutput  string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the catalog",
	Long: `List every product with its price and detail path.

Examples:
  storefront products
  storefront products -o json`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProduct,
}

func init() {
	productsCmd.Flags().StringVarP(&productsOutput, "output", "o", formatTable, "output format: table, json or yaml")
	productCmd.Flags().StringVarP(&productOutput, "output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(productsCmd, productCmd)
}

func runProducts(cmd *cobra.Command, args []string) error {
	if err := checkFormat(productsOutput); err != nil {
		return err
	}
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		if productsOutput == formatTable {
			return notified(sf.shell.Open(ctx, navigation.PathHome))
		}
		products, err := sf.client.ListProducts(ctx)
		if err != nil {
			return err
		}
		return writeStructured(cmd.OutOrStdout(), productsOutput, products)
	})
}

func runProduct(cmd *cobra.Command, args []string) error {
	if err := checkFormat(productOutput); err != nil {
		return err
	}
	id, err := parseProductID(args[0])
	if err != nil {
		return err
	}
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		if productOutput == formatTable {
			return notified(sf.shell.Open(ctx, sf.nav.Router().ProductPath(id)))
		}
		p, err := sf.client.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		return writeStructured(cmd.OutOrStdout(), productOutput, p)
	})
}

func parseProductID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
