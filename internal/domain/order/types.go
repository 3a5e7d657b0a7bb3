// Package order holds the order draft sent to POST /api/orders and the
// order summaries returned by GET /api/orders/my.
package order

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidDraft is returned when a draft has no product or a count below one.
var ErrInvalidDraft = errors.New("order needs a product and a count of at least 1")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Draft is a transient order request. The member is identified by the bearer token.
type Draft struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Count     int   `json:"count" validate:"gte=1"`
}

// Validate checks the draft before it is sent.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return ErrInvalidDraft
	}
	return nil
}

// Item is one line of a placed order.
type Item struct {
	ProductName string          `json:"productName" yaml:"product_name"`
	OrderPrice  decimal.Decimal `json:"orderPrice" yaml:"order_price"`
	Count       int             `json:"count" yaml:"count"`
}

// Subtotal is the line price times the count.
func (i Item) Subtotal() decimal.Decimal {
	return i.OrderPrice.Mul(decimal.NewFromInt(int64(i.Count)))
}

// Summary is an order as listed for the signed-in member.
// OrderDate is kept as sent; the server omits the zone.
type Summary struct {
	ID        int64  `json:"id" yaml:"id"`
	OrderDate string `json:"orderDate" yaml:"order_date"`
	Status    string `json:"status" yaml:"status"`
	Items     []Item `json:"orderItems" yaml:"items"`
}

// Total sums the item subtotals.
func (s Summary) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
