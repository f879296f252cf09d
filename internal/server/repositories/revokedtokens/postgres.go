package revokedtokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storeauth/internal/dbx"
)

// PostgresRepository implements the revocation set over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Contains checks blacklist membership for the raw token string.
func (r *PostgresRepository) Contains(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1)
	`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&revoked); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

// Insert records a revoked token. The conflict clause makes repeated
// revocation of the same token idempotent.
func (r *PostgresRepository) Insert(ctx context.Context, token string) error {
	query := `
		INSERT INTO revoked_tokens (token)
		VALUES ($1)
		ON CONFLICT (token) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
