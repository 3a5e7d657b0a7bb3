// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// The shell stores a logger carrying the user action; the API client
// further enriches it with request_id.
type LoggerKey struct{}

// RequestIDKey is the context key type for a caller-chosen X-Request-ID.
// When absent the API client generates one per request.
type RequestIDKey struct{}
