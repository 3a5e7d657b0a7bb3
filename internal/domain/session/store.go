package session

import (
	"context"
	"errors"
	"fmt"
)

// TokenKey is the single storage key holding the bearer token.
const TokenKey = "token"

// Storage is a string key-value boundary with browser-storage semantics:
// every reader sharing the same scope sees every write.
// Implementations: file (default), sqlite, in-memory (test).
type Storage interface {
	// GetItem returns the value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem stores a value, replacing any existing one.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes a key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// ErrEmptyToken is returned when asked to store an empty token.
var ErrEmptyToken = errors.New("token is empty")

// TokenStore exposes the token key of a Storage as get/set/clear.
type TokenStore struct {
	storage Storage
}

// NewTokenStore wraps a Storage.
func NewTokenStore(storage Storage) *TokenStore {
	return &TokenStore{storage: storage}
}

// Get returns the current token, or ok=false when none is stored.
func (s *TokenStore) Get(ctx context.Context) (token string, ok bool, err error) {
	token, ok, err = s.storage.GetItem(ctx, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, ok, nil
}

// Set persists the token, replacing any existing value.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.storage.SetItem(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the token.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.storage.RemoveItem(ctx, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
