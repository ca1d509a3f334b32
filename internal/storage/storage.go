package storage

import "context"

// TokenStore is the persistent key-value store holding session tokens.
type TokenStore interface {
	// Get returns the token under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	Close() error
}
