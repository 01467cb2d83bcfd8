package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no active key matches the presented hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity a validated API key resolves to. Every key
// belongs to a storefront user; the user's role decides what the key may do.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	UserID  string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
