// Package recoverytokens declares the repository contract for single-use
// password recovery tokens bound to an email address.
package recoverytokens

import (
	"context"

	"github.com/dmitrijs2005/storeauth/internal/server/models"
)

// Repository defines operations for issuing and consuming recovery tokens.
type Repository interface {
	// Create stores a new recovery token row for the email. Multiple
	// outstanding tokens per email are allowed.
	Create(ctx context.Context, email string, token string) (*models.RecoveryToken, error)

	// ConsumeIfMatches atomically deletes and returns the row matching both
	// the token value and the email. When no row matches (unknown token,
	// wrong email, or a concurrent consumer won the race) it returns
	// common.ErrorNotFound.
	ConsumeIfMatches(ctx context.Context, token string, email string) (*models.RecoveryToken, error)
}
