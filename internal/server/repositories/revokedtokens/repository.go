// Package revokedtokens declares the contract for the logout blacklist:
// a durable, append-only set of explicitly revoked session tokens.
package revokedtokens

import "context"

// Repository defines operations on the revocation set.
type Repository interface {
	// Contains reports whether the raw token string has been revoked.
	Contains(ctx context.Context, token string) (bool, error)

	// Insert adds a token to the revocation set. Inserting an
	// already-revoked token is a no-op success.
	Insert(ctx context.Context, token string) error
}
