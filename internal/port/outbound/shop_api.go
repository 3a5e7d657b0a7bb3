// Package outbound defines the outbound port interfaces of the storefront.
package outbound

import (
	"context"

	"github.com/unikraft-shop/storefront/internal/domain/catalog"
	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/order"
)

// ShopAPI is the outbound port for the storefront REST API.
// Each call issues exactly one request and is never retried. Failures are
// *shop.APIError values matching one of the shop sentinel errors.
type ShopAPI interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, creds member.Credentials) (string, error)

	// Signup registers a member. Success means the server answered 201.
	Signup(ctx context.Context, req member.SignupRequest) error

	// ListProducts returns the whole catalog.
	ListProducts(ctx context.Context) ([]catalog.Product, error)

	// GetProduct returns one product.
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)

	// PlaceOrder submits an order on behalf of the token's member.
	PlaceOrder(ctx context.Context, draft order.Draft, token string) error

	// MyOrders lists the orders of the token's member.
	MyOrders(ctx context.Context, token string) ([]order.Summary, error)
}
