// Package navigation maps storefront paths to views and keeps the
// navigation history of a shell.
package navigation

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// View identifies a screen of the storefront.
type View string

// Views reachable by path.
const (
	ViewListing  View = "listing"
	ViewDetail   View = "detail"
	ViewLogin    View = "login"
	ViewSignup   View = "signup"
	ViewOrders   View = "orders"
	ViewNotFound View = "not_found"
)

// Well-known paths.
const (
	PathHome   = "/"
	PathLogin  = "/login"
	PathSignup = "/signup"
	PathOrders = "/orders"
)

// Route is a resolved path.
type Route struct {
	View   View
	Path   string
	Params map[string]string
}

// ProductID returns the {id} parameter of a detail route.
func (r Route) ProductID() (int64, bool) {
	raw, ok := r.Params["id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Router resolves paths against the storefront route table.
type Router struct {
	mux *mux.Router
}

// NewRouter builds the route table.
func NewRouter() *Router {
	r := mux.NewRouter()
	r.Path(PathHome).Methods(http.MethodGet).Name(string(ViewListing))
	r.Path("/product/{id:[1-9][0-9]*}").Methods(http.MethodGet).Name(string(ViewDetail))
	r.Path(PathLogin).Methods(http.MethodGet).Name(string(ViewLogin))
	r.Path(PathSignup).Methods(http.MethodGet).Name(string(ViewSignup))
	r.Path(PathOrders).Methods(http.MethodGet).Name(string(ViewOrders))
	return &Router{mux: r}
}

// Resolve maps a path to its route. Unknown paths resolve to ViewNotFound.
// Query strings and fragments are ignored, a missing leading slash is added
// and a trailing slash is dropped.
func (r *Router) Resolve(path string) Route {
	clean := Normalize(path)

	req, err := http.NewRequest(http.MethodGet, clean, nil)
	if err != nil {
		return Route{View: ViewNotFound, Path: clean}
	}

	var match mux.RouteMatch
	if !r.mux.Match(req, &match) || match.Route == nil {
		return Route{View: ViewNotFound, Path: clean}
	}

	return Route{
		View:   View(match.Route.GetName()),
		Path:   clean,
		Params: match.Vars,
	}
}

// ProductPath returns the detail path of a product, e.g. "/product/3".
func (r *Router) ProductPath(id int64) string {
	u, err := r.mux.Get(string(ViewDetail)).URL("id", strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Sprintf("/product/%d", id)
	}
	return u.Path
}

// Normalize reduces a user-typed location to a clean absolute path.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
