// Package view renders storefront screens as plain text.
//
// Renderers are pure: each writes what it is given and nothing else, so the
// navbar mode depends only on the session state passed in at render time.
package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/unikraft-shop/storefront/internal/domain/catalog"
	"github.com/unikraft-shop/storefront/internal/domain/navigation"
	"github.com/unikraft-shop/storefront/internal/domain/order"
	"github.com/unikraft-shop/storefront/internal/domain/session"
)

// Brand is the navbar title.
const Brand = "storefront"

// Navbar menu labels.
const (
	MenuLogin   = "login"
	MenuSignup  = "signup"
	MenuOrders  = "orders"
	MenuLogout  = "logout"
	WelcomeText = "Welcome!"
)

// Navbar writes the navigation bar for state.
func Navbar(w io.Writer, state session.State) error {
	var items []string
	switch state {
	case session.Authenticated:
		items = []string{
			WelcomeText,
			link(MenuOrders, navigation.PathOrders),
			MenuLogout,
		}
	default:
		items = []string{
			link(MenuLogin, navigation.PathLogin),
			link(MenuSignup, navigation.PathSignup),
		}
	}

	_, err := fmt.Fprintf(w, "[%s %s] %s\n", Brand, navigation.PathHome, strings.Join(items, " | "))
	return err
}

// NavbarMenu returns the menu entries shown for state, without decoration.
func NavbarMenu(state session.State) []string {
	if state == session.Authenticated {
		return []string{WelcomeText, MenuOrders, MenuLogout}
	}
	return []string{MenuLogin, MenuSignup}
}

// Listing writes one entry per product, each linking to its detail path.
func Listing(w io.Writer, products []catalog.Product, productPath func(int64) string) error {
	if _, err := fmt.Fprintln(w, "Products"); err != nil {
		return err
	}
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "  (no products)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "  - %s\t%s\t-> %s\n", p.Title(), p.PriceLabel(), productPath(p.ID))
	}
	return tw.Flush()
}

// Detail writes a product with the order count currently selected.
func Detail(w io.Writer, p *catalog.Product, count int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "%s\n", p.Title())
	if p.ImageURL != "" {
		fmt.Fprintf(tw, "  image:\t%s\n", p.ImageURL)
	}
	fmt.Fprintf(tw, "  price:\t%s\n", p.PriceLabel())
	if p.Category != "" {
		fmt.Fprintf(tw, "  category:\t%s\n", p.Category)
	}
	if p.StockQuantity > 0 {
		fmt.Fprintf(tw, "  in stock:\t%d\n", p.StockQuantity)
	}
	if p.Description != "" {
		fmt.Fprintf(tw, "  description:\t%s\n", p.Description)
	}
	fmt.Fprintf(tw, "  count:\t%d\n", count)
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "  actions: order [count] | back")
	return err
}

// LoginForm writes the login screen.
func LoginForm(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Login\n  login <id> <password>\n  no account? %s\n",
		link(MenuSignup, navigation.PathSignup))
	return err
}

// SignupForm writes the sign-up screen.
func SignupForm(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Sign up\n  signup <id> <password> <password-check> <name> <email>\n"+
		"  id 4-20 characters, password 8-20 characters\n  have an account? %s\n",
		link(MenuLogin, navigation.PathLogin))
	return err
}

// Orders writes the member's orders, newest as sent by the server.
func Orders(w io.Writer, orders []order.Summary) error {
	if _, err := fmt.Fprintln(w, "My orders"); err != nil {
		return err
	}
	if len(orders) == 0 {
		_, err := fmt.Fprintln(w, "  (no orders yet)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range orders {
		fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\n", o.ID, o.OrderDate, o.Status, catalog.FormatPrice(o.Total()))
		for _, it := range o.Items {
			fmt.Fprintf(tw, "  \t%s x%d\t%s\t\n", it.ProductName, it.Count, catalog.FormatPrice(it.Subtotal()))
		}
	}
	return tw.Flush()
}

// NotFound writes the screen for an unknown path.
func NotFound(w io.Writer, path string) error {
	_, err := fmt.Fprintf(w, "Page not found: %s\n  back to %s\n", path, navigation.PathHome)
	return err
}

func link(label, path string) string {
	return fmt.Sprintf("%s (%s)", label, path)
}
