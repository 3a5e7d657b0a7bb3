// Package cmd provides the CLI commands for the storefront client.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unikraft-shop/storefront/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "storefront - terminal client for the shop",
	Long: `storefront is a terminal client for the shop REST API.

It lists products, shows product details, signs members up and in, and
places orders with the session token kept between runs.

Quick start:
  storefront products
  storefront login --id testuser
  storefront order 1 --count 2
  storefront browse

Configuration:
  Config is loaded from storefront.yaml in the current directory,
  $HOME/.storefront/, or /etc/storefront/.

  Environment variables override config values with the STOREFRONT_ prefix.
  A .env file in the current directory is read first.
  Example: STOREFRONT_API_BASE_URL=http://shop.local:8080

Commands:
  products    List the catalog
  product     Show one product
  order       Order a product
  orders      List your orders
  login       Log in and keep the session
  signup      Create an account
  logout      Forget the session
  status      Show the navbar and session state
  browse      Interactive shell
  reset       Remove the stored session
  version     Print version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors already shown to the user as a
// notice only set the exit status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var shown *notifiedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./storefront.yaml)")
	flags.String("api-url", "", "shop API origin (overrides api.base_url)")
	flags.String("session-path", "", "session storage file (overrides session.path)")

	_ = viper.BindPFlag("api.base_url", flags.Lookup("api-url"))
	_ = viper.BindPFlag("session.path", flags.Lookup("session-path"))
}

func initConfig() {
	config.InitViper(cfgFile)
}
