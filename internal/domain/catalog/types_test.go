package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProduct_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantCategory string
		wantPrice    string
	}{
		{
			name:         "category as string",
			body:         `{"id":1,"name":"녹차","price":5000,"category":"TEA"}`,
			wantCategory: "TEA",
			wantPrice:    "5000",
		},
		{
			name:         "category name field",
			body:         `{"id":2,"name":"초코 케이크","price":7000,"categoryName":"DESSERT","stockQuantity":50}`,
			wantCategory: "DESSERT",
			wantPrice:    "7000",
		},
		{
			name:         "category object",
			body:         `{"id":3,"name":"x","price":"12.50","category":{"id":9,"name":"TEA"}}`,
			wantCategory: "TEA",
			wantPrice:    "12.5",
		},
		{
			name:         "no category",
			body:         `{"id":4,"name":"y","price":1,"category":null}`,
			wantCategory: "",
			wantPrice:    "1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p Product
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if p.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", p.Category, tt.wantCategory)
			}
			if p.Price.String() != tt.wantPrice {
				t.Errorf("Price = %s, want %s", p.Price.String(), tt.wantPrice)
			}
		})
	}
}

func TestProduct_UnmarshalJSON_StockQuantity(t *testing.T) {
	t.Parallel()

	var p Product
	if err := json.Unmarshal([]byte(`{"id":2,"stockQuantity":50,"imageUrl":"cake.jpg"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if p.StockQuantity != 50 {
		t.Errorf("StockQuantity = %d, want 50", p.StockQuantity)
	}
	if p.ImageURL != "cake.jpg" {
		t.Errorf("ImageURL = %q, want cake.jpg", p.ImageURL)
	}
}

func TestProduct_PriceLabel(t *testing.T) {
	t.Parallel()

	p := Product{Price: decimal.NewFromInt(5000)}
	if got := p.PriceLabel(); got != "5000원" {
		t.Errorf("PriceLabel() = %q, want %q", got, "5000원")
	}
}

func TestProduct_Title(t *testing.T) {
	t.Parallel()

	if got := (Product{Name: "  "}).Title(); got != "(unnamed product)" {
		t.Errorf("Title() = %q", got)
	}
	if got := (Product{Name: "녹차"}).Title(); got != "녹차" {
		t.Errorf("Title() = %q", got)
	}
}
