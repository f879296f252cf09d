package services

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storeauth/internal/common"
	"github.com/dmitrijs2005/storeauth/internal/dbx"
	"github.com/dmitrijs2005/storeauth/internal/logging"
	"github.com/dmitrijs2005/storeauth/internal/server/auth"
	"github.com/dmitrijs2005/storeauth/internal/server/config"
	"github.com/dmitrijs2005/storeauth/internal/server/models"
	recoverytokensrepo "github.com/dmitrijs2005/storeauth/internal/server/repositories/recoverytokens"
	revokedtokensrepo "github.com/dmitrijs2005/storeauth/internal/server/repositories/revokedtokens"
	usersrepo "github.com/dmitrijs2005/storeauth/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func strPtr(s string) *string { return &s }

// --- fake users repository ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by id

	findErr   error
	updateErr error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	m := make(map[string]*models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUsersRepo{users: m}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdateLastIssueTime(ctx context.Context, id string, issuedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if u, ok := f.users[id]; ok {
		u.LastIssueTime = issuedAt
	}
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeUsersRepo) MarkConfirmed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Confirmed = true
		u.ConfirmationToken = nil
	}
	return nil
}

func (f *fakeUsersRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

// --- fake revoked tokens repository ---

type fakeRevokedRepo struct {
	mu       sync.Mutex
	revoked  map[string]bool
	checkErr error
	insErr   error
}

func newFakeRevokedRepo() *fakeRevokedRepo {
	return &fakeRevokedRepo{revoked: make(map[string]bool)}
}

func (f *fakeRevokedRepo) Contains(ctx context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.revoked[token], nil
}

func (f *fakeRevokedRepo) Insert(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insErr != nil {
		return f.insErr
	}
	f.revoked[token] = true
	return nil
}

// --- fake recovery tokens repository ---

type fakeRecoveryRepo struct {
	mu   sync.Mutex
	rows []models.RecoveryToken

	createErr error
}

func (f *fakeRecoveryRepo) Create(ctx context.Context, email string, token string) (*models.RecoveryToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	rt := models.RecoveryToken{ID: token, Email: email, Token: token, CreatedAt: time.Now()}
	f.rows = append(f.rows, rt)
	return &rt, nil
}

func (f *fakeRecoveryRepo) ConsumeIfMatches(ctx context.Context, token string, email string) (*models.RecoveryToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rt := range f.rows {
		if rt.Token == token && rt.Email == email {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			out := rt
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- fake repository manager ---

type fakeRepoManager struct {
	u  *fakeUsersRepo
	rv *fakeRevokedRepo
	rc *fakeRecoveryRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) RevokedTokens(db dbx.DBTX) revokedtokensrepo.Repository {
	return m.rv
}
func (m *fakeRepoManager) RecoveryTokens(db dbx.DBTX) recoverytokensrepo.Repository {
	return m.rc
}

// --- fake mailer ---

type sentMail struct {
	to       string
	token    string
	callback string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (f *fakeMailer) SendRecoveryEmail(ctx context.Context, to string, token string, callback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to: to, token: token, callback: callback})
	return nil
}

// --- service constructors over fakes ---

func newTestAuthService(t *testing.T, db *sql.DB, rm *fakeRepoManager, mailer *fakeMailer, invalidateOnReset bool) (*AuthService, *auth.Issuer) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                         "k",
		TokenValidityDuration:             time.Hour,
		InvalidateSessionsOnPasswordReset: invalidateOnReset,
	}
	issuer := auth.NewIssuer([]byte(cfg.SecretKey), cfg.TokenValidityDuration)
	svc := NewAuthService(db, rm, issuer, auth.NewPasswordHasher(), mailer, cfg, testLogger())
	return svc, issuer
}
