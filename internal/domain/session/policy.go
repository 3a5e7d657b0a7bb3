package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryPolicy decides whether a stored token should already be treated as
// expired, before any server round trip. A token the policy cannot judge
// (e.g., an opaque string) is never reported as expired.
type ExpiryPolicy interface {
	Expired(token string, now time.Time) bool
}

// ReactivePolicy never expires a token locally; only a 403 ends the session.
type ReactivePolicy struct{}

// Expired always returns false.
func (ReactivePolicy) Expired(string, time.Time) bool { return false }

// JWTPolicy honours the exp claim of a JWT token. The signature is not
// verified: the server remains the authority, this only avoids sending a
// token that is known to be stale.
type JWTPolicy struct {
	// Leeway treats tokens as expired this long before exp.
	Leeway time.Duration
}

// Expired reports whether now is past exp minus the leeway.
func (p JWTPolicy) Expired(token string, now time.Time) bool {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time.Add(-p.Leeway))
}

// unverifiedClaims decodes the claims of a JWT without checking its signature.
func unverifiedClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// NewExpiryPolicy builds the policy named by kind ("reactive", "jwt", "cel").
func NewExpiryPolicy(kind string, leeway time.Duration, validWhen string) (ExpiryPolicy, error) {
	switch kind {
	case "", "reactive":
		return ReactivePolicy{}, nil
	case "jwt":
		return JWTPolicy{Leeway: leeway}, nil
	case "cel":
		return NewCELPolicy(validWhen)
	default:
		return nil, fmt.Errorf("unknown expiry policy %q", kind)
	}
}
