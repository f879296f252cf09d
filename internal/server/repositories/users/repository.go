// Package users declares the credential-store contract consumed by the
// authentication services.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/storeauth/internal/server/models"
)

// Repository defines the persistence operations the auth flows need on the
// users table. Implementations map "no such row" to common.ErrorNotFound.
type Repository interface {
	// Create inserts a new, unconfirmed user row and returns it with its id set.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByID looks a user up by primary key.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail looks a user up by its unique email address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByConfirmationToken looks a user up by its pending confirmation secret.
	FindByConfirmationToken(ctx context.Context, token string) (*models.User, error)

	// UpdateLastIssueTime records the issue time of the newest session token.
	// A nil issuedAt forcibly invalidates all of the user's sessions.
	UpdateLastIssueTime(ctx context.Context, id string, issuedAt *time.Time) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error

	// MarkConfirmed clears the confirmation token and flags the user confirmed.
	MarkConfirmed(ctx context.Context, id string) error
}
