// Package catalog holds the read-only product model served by the storefront API.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySuffix is appended to displayed prices.
const CurrencySuffix = "원"

// Product is a catalog entry. It is never mutated by the client.
type Product struct {
	ID            int64           `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	Description   string          `json:"description" yaml:"description"`
	ImageURL      string          `json:"imageUrl" yaml:"image_url"`
	Category      string          `json:"category" yaml:"category"`
	StockQuantity int             `json:"stockQuantity" yaml:"stock_quantity"`
}

// productWire is the server's representation. The category arrives either as
// "category" (a name or a {"name": ...} object) or as "categoryName".
type productWire struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"imageUrl"`
	Category      json.RawMessage `json:"category"`
	CategoryName  string          `json:"categoryName"`
	StockQuantity int             `json:"stockQuantity"`
}

// UnmarshalJSON accepts both category encodings.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Product{
		ID:            w.ID,
		Name:          w.Name,
		Price:         w.Price,
		Description:   w.Description,
		ImageURL:      w.ImageURL,
		Category:      categoryName(w.Category),
		StockQuantity: w.StockQuantity,
	}
	if p.Category == "" {
		p.Category = w.CategoryName
	}
	return nil
}

func categoryName(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// PriceLabel formats the price for display, e.g. "5000원".
func (p Product) PriceLabel() string {
	return FormatPrice(p.Price)
}

// FormatPrice renders an amount with the currency suffix.
func FormatPrice(amount decimal.Decimal) string {
	return amount.String() + CurrencySuffix
}

// Title returns the product name, or a placeholder when the server sent none.
func (p Product) Title() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "(unnamed product)"
}
