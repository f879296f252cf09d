// Package services contains server-side business logic. This file implements
// AuthService, which drives the account flows: login, logout, forget/recover
// password, and email confirmation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storeauth/internal/common"
	"github.com/dmitrijs2005/storeauth/internal/dbx"
	"github.com/dmitrijs2005/storeauth/internal/logging"
	"github.com/dmitrijs2005/storeauth/internal/server/auth"
	"github.com/dmitrijs2005/storeauth/internal/server/config"
	"github.com/dmitrijs2005/storeauth/internal/server/mail"
	"github.com/dmitrijs2005/storeauth/internal/server/repositories/repomanager"
)

// Recovery tokens are hex strings of 15 to 30 random bytes. The length itself
// is random so token length does not act as a side channel.
const (
	recoveryTokenMinBytes = 15
	recoveryTokenMaxBytes = 30
)

// AuthService provides the authentication flows:
// - Login: verify credentials, mint a session token, advance the epoch
// - Logout: blacklist one token
// - Forget: issue a recovery token and mail it
// - Recover: consume a recovery token and reset the password
// - Confirm: consume the email confirmation token
type AuthService struct {
	db                                *sql.DB
	repomanager                       repomanager.RepositoryManager
	issuer                            *auth.Issuer
	hasher                            *auth.PasswordHasher
	mailer                            mail.Mailer
	invalidateSessionsOnPasswordReset bool
	logger                            logging.Logger
}

// NewAuthService constructs an AuthService using repositories, the token
// issuer, the password hasher, the mailer, and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer, hasher *auth.PasswordHasher,
	mailer mail.Mailer, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                                db,
		repomanager:                       m,
		issuer:                            issuer,
		hasher:                            hasher,
		mailer:                            mailer,
		invalidateSessionsOnPasswordReset: cfg.InvalidateSessionsOnPasswordReset,
		logger:                            logger,
	}
}

// Login verifies the email/password pair and, on success, returns a freshly
// signed session token. An unknown email and a wrong password produce the
// same common.ErrBadCredentials so account existence cannot be probed.
// Issuing the token advances the user's epoch, which immediately invalidates
// every previously issued token for that user.
func (s *AuthService) Login(ctx context.Context, email string, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrBadCredentials
		}
		return "", fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", common.ErrBadCredentials
	}

	if !user.Confirmed {
		return "", common.ErrNotConfirmed
	}

	role := common.DefaultRole
	if user.Role != nil {
		role = *user.Role
	}

	token, issuedAt, err := s.issuer.Create(user.ID, role)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := repo.UpdateLastIssueTime(ctx, user.ID, &issuedAt); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	return token, nil
}

// Logout inserts the raw token into the revocation blacklist. The caller is
// expected to have validated the token already. Revoking an already-revoked
// token is a no-op success, and logout does not touch the user's epoch: a
// user who logs out can log back in immediately.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if err := s.repomanager.RevokedTokens(s.db).Insert(ctx, rawToken); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}

// Forget starts the password recovery flow. For an unknown email it returns
// nil with no side effects, indistinguishable from the success case, so the
// response cannot be used as an account-enumeration oracle. The token is
// generated before the lookup to keep the two paths' timing close. The only
// surfaced failure is common.ErrDeliveryFailed, which indicates mail
// infrastructure trouble rather than anything about the account.
func (s *AuthService) Forget(ctx context.Context, email string, callback string) error {
	token, err := s.newRecoveryToken()
	if err != nil {
		return common.ErrorInternal
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Act as if the mail was sent.
			return nil
		}
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	rt, err := s.repomanager.RecoveryTokens(s.db).Create(ctx, user.Email, token)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if err := s.mailer.SendRecoveryEmail(ctx, user.Email, rt.Token, callback); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	return nil
}

// Recover finishes the password recovery flow. Both the token value and the
// email must match an outstanding recovery row; consumption is exactly-once,
// so of two racing requests with the same token at most one resets the
// password. Token consumption and the password write happen in one
// transaction: a request abandoned mid-flow never leaves the token consumed
// with the old password still in place. Whether live sessions survive the
// reset is a configuration choice (InvalidateSessionsOnPasswordReset).
func (s *AuthService) Recover(ctx context.Context, email string, token string, newPassword string) error {
	// Hash up front: bcrypt is slow and must not run inside the transaction.
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.RecoveryTokens(tx).ConsumeIfMatches(ctx, token, email); err != nil {
			return err
		}

		userRepo := s.repomanager.Users(tx)
		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		if err := userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}

		if s.invalidateSessionsOnPasswordReset {
			return userRepo.UpdateLastIssueTime(ctx, user.ID, nil)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Unknown token, wrong email, or no such user: one generic answer.
			return common.ErrInvalidRecovery
		}
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	return nil
}

// Confirm consumes an email confirmation token and flips the account into the
// confirmed state, which unblocks login. No session token is issued.
func (s *AuthService) Confirm(ctx context.Context, token string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidConfirmation
		}
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if err := repo.MarkConfirmed(ctx, user.ID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *AuthService) newRecoveryToken() (string, error) {
	size, err := common.RandIntBetween(recoveryTokenMinBytes, recoveryTokenMaxBytes)
	if err != nil {
		return "", err
	}
	return common.MakeRandHexString(size)
}
