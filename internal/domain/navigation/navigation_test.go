package navigation

import (
	"sync"
	"testing"
)

func TestRouter_Resolve(t *testing.T) {
	t.Parallel()

	r := NewRouter()

	tests := []struct {
		path     string
		wantView View
		wantPath string
	}{
		{"/", ViewListing, "/"},
		{"", ViewListing, "/"},
		{"/product/3", ViewDetail, "/product/3"},
		{"product/3", ViewDetail, "/product/3"},
		{"/product/3/", ViewDetail, "/product/3"},
		{"/product/3?ref=home", ViewDetail, "/product/3"},
		{"/product/abc", ViewNotFound, "/product/abc"},
		{"/product/0", ViewNotFound, "/product/0"},
		{"/product/007", ViewNotFound, "/product/007"},
		{"/login", ViewLogin, "/login"},
		{"/signup", ViewSignup, "/signup"},
		{"/orders", ViewOrders, "/orders"},
		{"/cart", ViewNotFound, "/cart"},
		{"/product", ViewNotFound, "/product"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			got := r.Resolve(tt.path)
			if got.View != tt.wantView {
				t.Errorf("Resolve(%q).View = %q, want %q", tt.path, got.View, tt.wantView)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Resolve(%q).Path = %q, want %q", tt.path, got.Path, tt.wantPath)
			}
		})
	}
}

func TestRoute_ProductID(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	id, ok := r.Resolve("/product/42").ProductID()
	if !ok || id != 42 {
		t.Errorf("ProductID() = %d, %v; want 42, true", id, ok)
	}
	if _, ok := r.Resolve("/product/0").ProductID(); ok {
		t.Error("ProductID() should reject 0")
	}
	if _, ok := r.Resolve("/login").ProductID(); ok {
		t.Error("ProductID() on login route should be false")
	}
}

func TestRouter_ProductPath(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	if got := r.ProductPath(7); got != "/product/7" {
		t.Errorf("ProductPath(7) = %q", got)
	}
	if got := r.Resolve(r.ProductPath(7)); got.View != ViewDetail {
		t.Errorf("ProductPath does not resolve to detail: %+v", got)
	}
}

func TestNavigator_NavigateAndBack(t *testing.T) {
	t.Parallel()

	n := NewNavigator(NewRouter())
	if n.Current().View != ViewListing {
		t.Fatalf("start view = %q, want listing", n.Current().View)
	}

	n.Navigate("/product/1")
	n.Navigate("/login")
	if n.Current().View != ViewLogin {
		t.Errorf("Current() = %q, want login", n.Current().View)
	}

	back, ok := n.Back()
	if !ok || back.Path != "/product/1" {
		t.Errorf("Back() = %+v, %v", back, ok)
	}
	back, ok = n.Back()
	if !ok || back.Path != "/" {
		t.Errorf("Back() = %+v, %v", back, ok)
	}
	back, ok = n.Back()
	if ok || back.Path != "/" {
		t.Errorf("Back() at start = %+v, %v; want to stay on /", back, ok)
	}
}

func TestNavigator_HistoryBounded(t *testing.T) {
	t.Parallel()

	n := NewNavigator(NewRouter())
	for i := 0; i < maxHistory+20; i++ {
		n.Navigate("/login")
	}
	if got := len(n.History()); got != maxHistory {
		t.Errorf("len(History()) = %d, want %d", got, maxHistory)
	}
}

func TestNavigator_ConcurrentUse(t *testing.T) {
	t.Parallel()

	n := NewNavigator(NewRouter())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Navigate("/orders")
			_ = n.Current()
			_, _ = n.Back()
		}()
	}
	wg.Wait()
	if len(n.History()) < 1 {
		t.Error("history must never be empty")
	}
}
