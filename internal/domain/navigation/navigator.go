package navigation

import "sync"

// maxHistory bounds the retained history.
const maxHistory = 100

// Navigator holds the current location and its history.
// Safe for concurrent use.
type Navigator struct {
	router *Router

	mu      sync.Mutex
	history []Route
}

// NewNavigator starts at "/".
func NewNavigator(router *Router) *Navigator {
	return &Navigator{
		router:  router,
		history: []Route{router.Resolve(PathHome)},
	}
}

// Navigate resolves path and pushes it onto the history.
func (n *Navigator) Navigate(path string) Route {
	route := n.router.Resolve(path)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, route)
	if len(n.history) > maxHistory {
		n.history = n.history[len(n.history)-maxHistory:]
	}
	return route
}

// Back pops the current location. It reports false, staying put, when
// there is nowhere to go back to.
func (n *Navigator) Back() (Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) < 2 {
		return n.history[len(n.history)-1], false
	}
	n.history = n.history[:len(n.history)-1]
	return n.history[len(n.history)-1], true
}

// Current returns the current location.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// History returns the visited paths, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	paths := make([]string, len(n.history))
	for i, r := range n.history {
		paths[i] = r.Path
	}
	return paths
}

// Router returns the router used for resolution and link building.
func (n *Navigator) Router() *Router {
	return n.router
}
