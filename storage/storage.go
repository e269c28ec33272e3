package storage

import (
	"context"
	"time"
)

// AccessToken is the stored record for a locally issued bearer token.
type AccessToken struct {
	Subject   string    // Client identifier the token was issued to
	IssuedAt  time.Time // When the token was issued
	ExpiresAt time.Time // Absolute expiry; the token is invalid at or after this instant
}

// TokenStore persists locally issued access tokens.
//
// Lookup must treat expiry lazily: a token whose ExpiresAt has passed is
// reported as invalid even if no sweep has removed it yet. An unknown token
// is not an error; it is simply invalid.
type TokenStore interface {
	// Record stores a token with its subject and absolute expiry,
	// overwriting any previous record for the same token value.
	Record(ctx context.Context, token, subject string, expiresAt time.Time) error

	// Lookup resolves a token to its subject. valid is false for unknown
	// or expired tokens; err is reserved for infrastructure failures.
	Lookup(ctx context.Context, token string) (subject string, valid bool, err error)

	// Stop releases background resources held by the store.
	Stop()
}
