package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storeauth/internal/common"
	"github.com/dmitrijs2005/storeauth/internal/server/auth"
	"github.com/dmitrijs2005/storeauth/internal/server/repositories/repomanager"
)

// Principal is the identity a validated session token asserts. The routing
// layer uses it for authorization decisions.
type Principal struct {
	UserID string
	Role   string
}

// SessionValidator decides whether a presented bearer token is currently
// valid. Checks run in a fixed order and short-circuit on the first failure:
//
//  1. signature/expiry (Issuer.Verify)
//  2. revocation blacklist membership
//  3. subject exists
//  4. token epoch equals the user's recorded last issue time
//
// All four failures surface as common.ErrUnauthenticated; callers cannot
// tell which check rejected the token. Combined with the blacklist this gives
// two-tier revocation: logout revokes one token explicitly, a newer login (or
// an administrative reset of the epoch) revokes every older token implicitly.
type SessionValidator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
}

// NewSessionValidator constructs a SessionValidator.
func NewSessionValidator(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer) *SessionValidator {
	return &SessionValidator{db: db, repomanager: m, issuer: issuer}
}

// Validate checks the token and returns the asserted principal.
// Infrastructure failures are reported as common.ErrStoreUnavailable and are
// never collapsed into common.ErrUnauthenticated.
func (v *SessionValidator) Validate(ctx context.Context, rawToken string) (*Principal, error) {
	claims, err := v.issuer.Verify(rawToken)
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	revoked, err := v.repomanager.RevokedTokens(v.db).Contains(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, common.ErrUnauthenticated
	}

	user, err := v.repomanager.Users(v.db).FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	// Exact epoch match: only the most recently issued token is ever valid.
	if claims.IssuedAt == nil || user.LastIssueTime == nil ||
		!claims.IssuedAt.Time.Equal(*user.LastIssueTime) {
		return nil, common.ErrUnauthenticated
	}

	return &Principal{UserID: user.ID, Role: claims.Role}, nil
}
