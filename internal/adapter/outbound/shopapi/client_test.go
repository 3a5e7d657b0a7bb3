package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unikraft-shop/storefront/internal/ctxkey"
	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/order"
	"github.com/unikraft-shop/storefront/internal/domain/shop"
	"github.com/unikraft-shop/storefront/internal/telemetry"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL+"/", WithTimeout(2*time.Second))
}

func TestLogin_PlainTextToken(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/members/login" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var creds member.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds.LoginID != "testuser" || creds.Password != "1234" {
			t.Errorf("credentials = %+v", creds)
		}
		_, _ = io.WriteString(w, "eyJhbGciOiJIUzI1NiJ9.e30.sig\n")
	})

	token, err := client.Login(context.Background(), member.Credentials{LoginID: "testuser", Password: "1234"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token != "eyJhbGciOiJIUzI1NiJ9.e30.sig" {
		t.Errorf("token = %q", token)
	}
}

func TestLogin_TokenEncodings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "json string", body: `"abc123"`},
		{name: "json object", body: `{"token":"abc123"}`},
		{name: "padded text", body: "  abc123  "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			token, err := client.Login(context.Background(), member.Credentials{LoginID: "a", Password: "b"})
			if err != nil || token != "abc123" {
				t.Errorf("Login() = %q, %v", token, err)
			}
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), member.Credentials{LoginID: "x", Password: "y"})
	if !errors.Is(err, shop.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}

	var apiErr *shop.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Endpoint != EndpointLogin {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestLogin_EmptyBodyIsAuthError(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if _, err := client.Login(context.Background(), member.Credentials{LoginID: "x", Password: "y"}); !errors.Is(err, shop.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestSignup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "created", status: http.StatusCreated},
		{name: "ok is not created", status: http.StatusOK, wantErr: shop.ErrValidation},
		{name: "bad request", status: http.StatusBadRequest, wantErr: shop.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/members/signup" {
					t.Errorf("path = %s", r.URL.Path)
				}
				var req member.SignupRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Email != "new@example.com" {
					t.Errorf("email = %q", req.Email)
				}
				w.WriteHeader(tt.status)
			})

			err := client.Signup(context.Background(), member.SignupRequest{
				LoginID: "newuser", Password: "password1", Name: "New", Email: "new@example.com",
			})
			if tt.wantErr == nil && err != nil {
				t.Errorf("Signup() error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Signup() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/products" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":1,"name":"녹차","price":5000,"description":"green tea","imageUrl":"/img/tea.png","categoryName":"TEA","stockQuantity":100},
			{"id":2,"name":"초코 케이크","price":7000,"category":{"name":"DESSERT"},"stockQuantity":50}
		]`)
	})

	products, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	if products[0].Category != "TEA" || products[1].Category != "DESSERT" {
		t.Errorf("categories = %q, %q", products[0].Category, products[1].Category)
	}
	if products[0].PriceLabel() != "5000원" {
		t.Errorf("PriceLabel() = %q", products[0].PriceLabel())
	}
}

func TestListProducts_EmptyAndFailures(t *testing.T) {
	t.Parallel()

	_, empty := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	products, err := empty.ListProducts(context.Background())
	if err != nil || products == nil || len(products) != 0 {
		t.Errorf("ListProducts() on null = %v, %v; want empty slice", products, err)
	}

	_, broken := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	if _, err := broken.ListProducts(context.Background()); !errors.Is(err, shop.ErrGeneric) {
		t.Errorf("undecodable body error = %v, want ErrGeneric", err)
	}

	_, failing := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, err := failing.ListProducts(context.Background()); !errors.Is(err, shop.ErrGeneric) {
		t.Errorf("500 error = %v, want ErrGeneric", err)
	}
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/1":
			_, _ = io.WriteString(w, `{"id":1,"name":"녹차","price":5000,"category":"TEA"}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := client.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetProduct(1) error: %v", err)
	}
	if p.ID != 1 || p.Name != "녹차" || p.Category != "TEA" {
		t.Errorf("product = %+v", p)
	}

	if _, err := client.GetProduct(context.Background(), 99); !errors.Is(err, shop.ErrGeneric) {
		t.Errorf("GetProduct(99) error = %v, want ErrGeneric", err)
	}
}

func TestPlaceOrder_SendsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotRequestID string
	var gotDraft order.Draft
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotDraft)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.PlaceOrder(context.Background(), order.Draft{ProductID: 1, Count: 2}, "abc123")
	if err != nil {
		t.Fatalf("PlaceOrder() error: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer abc123")
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID not sent")
	}
	if gotDraft.ProductID != 1 || gotDraft.Count != 2 {
		t.Errorf("draft = %+v", gotDraft)
	}
}

func TestPlaceOrder_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "created", status: http.StatusCreated},
		{name: "forbidden", status: http.StatusForbidden, wantErr: shop.ErrSessionExpired},
		{name: "server error", status: http.StatusInternalServerError, wantErr: shop.ErrOrder},
		{name: "ok is not created", status: http.StatusOK, wantErr: shop.ErrOrder},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			err := client.PlaceOrder(context.Background(), order.Draft{ProductID: 1, Count: 1}, "tok")
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("PlaceOrder() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PlaceOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceOrder_OrderErrorIsGeneric(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusConflict)
	})
	err := client.PlaceOrder(context.Background(), order.Draft{ProductID: 1, Count: 1}, "tok")
	if !errors.Is(err, shop.ErrGeneric) || errors.Is(err, shop.ErrSessionExpired) {
		t.Errorf("error = %v, want ErrOrder matching ErrGeneric", err)
	}
}

func TestMyOrders(t *testing.T) {
	t.Parallel()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/my" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, `[{"id":7,"orderDate":"2024-01-02T03:04:05","status":"ORDER",
			"orderItems":[{"productName":"녹차","orderPrice":5000,"count":2}]}]`)
	})

	orders, err := client.MyOrders(context.Background(), "tok")
	if err != nil {
		t.Fatalf("MyOrders() error: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Items) != 1 {
		t.Fatalf("orders = %+v", orders)
	}
	if got := orders[0].Total().String(); got != "10000" {
		t.Errorf("Total() = %s, want 10000", got)
	}

	if _, err := client.MyOrders(context.Background(), "stale"); !errors.Is(err, shop.ErrSessionExpired) {
		t.Errorf("MyOrders(stale) error = %v, want ErrSessionExpired", err)
	}
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithTimeout(time.Second))
	_, err := client.ListProducts(context.Background())
	if !errors.Is(err, shop.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	var apiErr *shop.APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		t.Errorf("Status = %d, want 0 for transport failure", apiErr.Status)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	var got string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `[]`)
	})

	ctx := context.WithValue(context.Background(), ctxkey.RequestIDKey{}, "req-42")
	if _, err := client.ListProducts(ctx); err != nil {
		t.Fatalf("ListProducts() error: %v", err)
	}
	if got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestMetricsRecorded(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/orders" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithMetrics(m), WithTracer(telemetry.NoopTracing().Tracer))
	_, _ = client.ListProducts(context.Background())
	_ = client.PlaceOrder(context.Background(), order.Draft{ProductID: 1, Count: 1}, "tok")

	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues(EndpointProducts, "ok")); got != 1 {
		t.Errorf("products ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues(EndpointPlaceOrder, "session_expired")); got != 1 {
		t.Errorf("orders session_expired = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.APIDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}
