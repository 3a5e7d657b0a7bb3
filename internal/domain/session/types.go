// Package session manages the client-side belief about authentication: a
// single bearer token kept in a key-value storage, the Anonymous /
// Authenticated state derived from it, and change notifications.
package session

// State is the authentication state derived from token presence.
type State int

const (
	// Anonymous means no usable token is stored.
	Anonymous State = iota
	// Authenticated means a token is stored and not judged expired.
	Authenticated
)

// String returns the lower-case state name.
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Reasons attached to a Change.
const (
	ReasonLogin    = "login"
	ReasonLogout   = "logout"
	ReasonExpired  = "expired"
	ReasonExternal = "external"
)

// Change is published whenever the provider observes or performs a transition.
type Change struct {
	From   State
	To     State
	Reason string
}

// Changed reports whether the derived state actually moved.
func (c Change) Changed() bool {
	return c.From != c.To
}
