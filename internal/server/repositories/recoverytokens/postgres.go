package recoverytokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storeauth/internal/common"
	"github.com/dmitrijs2005/storeauth/internal/dbx"
	"github.com/dmitrijs2005/storeauth/internal/server/models"
)

// PostgresRepository implements the recovery token store over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new recovery token row for the email.
func (r *PostgresRepository) Create(ctx context.Context, email string, token string) (*models.RecoveryToken, error) {
	query := `
		INSERT INTO recovery_tokens (email, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	rt := &models.RecoveryToken{Email: email, Token: token}
	if err := r.db.QueryRowContext(ctx, query, email, token).Scan(&rt.ID, &rt.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// ConsumeIfMatches deletes the matching row and returns it in one statement.
// The conditional DELETE ... RETURNING makes consumption exactly-once: when
// two requests race on the same token, the row is gone for the loser and it
// observes common.ErrorNotFound.
func (r *PostgresRepository) ConsumeIfMatches(ctx context.Context, token string, email string) (*models.RecoveryToken, error) {
	query := `
		DELETE FROM recovery_tokens
		WHERE token = $1 AND email = $2
		RETURNING id, email, token, created_at
	`
	rt := &models.RecoveryToken{}
	err := r.db.QueryRowContext(ctx, query, token, email).Scan(&rt.ID, &rt.Email, &rt.Token, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}
