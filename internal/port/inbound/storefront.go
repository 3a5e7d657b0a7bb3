// Package inbound defines the inbound port of the storefront core.
// Inbound adapters (the CLI commands and the browse shell) call it.
package inbound

import (
	"context"
	"io"

	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/navigation"
	"github.com/unikraft-shop/storefront/internal/domain/session"
)

// Storefront is the set of user actions. Each action reports its outcome
// to the user itself; the returned error only tells the caller it failed.
type Storefront interface {
	// Open navigates to path and renders the screen.
	Open(ctx context.Context, path string) error

	// Back returns to the previous screen, if any.
	Back(ctx context.Context) error

	// Current returns the current route.
	Current() navigation.Route

	// State returns the session state as derived now.
	State(ctx context.Context) session.State

	Login(ctx context.Context, creds member.Credentials) error
	Logout(ctx context.Context) error
	Signup(ctx context.Context, draft member.SignupDraft) error

	// OrderCurrent orders count units of the open product.
	OrderCurrent(ctx context.Context, count int) error

	// PlaceOrder orders count units of productID.
	PlaceOrder(ctx context.Context, productID int64, count int) error

	// Output is the screen writer for text outside the screens, such as a
	// prompt. It is safe to use while session changes are being drawn.
	Output() io.Writer
}
