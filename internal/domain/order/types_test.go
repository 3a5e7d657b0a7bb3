package order

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDraft_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft Draft
		valid bool
	}{
		{name: "one item", draft: Draft{ProductID: 42, Count: 1}, valid: true},
		{name: "many items", draft: Draft{ProductID: 1, Count: 10}, valid: true},
		{name: "zero count", draft: Draft{ProductID: 42, Count: 0}},
		{name: "negative count", draft: Draft{ProductID: 42, Count: -3}},
		{name: "no product", draft: Draft{Count: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.draft.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidDraft) {
				t.Errorf("Validate() error = %v, want ErrInvalidDraft", err)
			}
		})
	}
}

func TestDraft_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Draft{ProductID: 42, Count: 2})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"productId":42,"count":2}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestSummary_Total(t *testing.T) {
	t.Parallel()

	body := `{"id":7,"orderDate":"2024-05-01T10:00:00","status":"ORDER","orderItems":[
		{"productName":"녹차","orderPrice":5000,"count":2},
		{"productName":"초코 케이크","orderPrice":7000,"count":1}]}`

	var s Summary
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(s.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(s.Items))
	}
	if got := s.Total().String(); got != "17000" {
		t.Errorf("Total() = %s, want 17000", got)
	}
}
