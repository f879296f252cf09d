package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/storeauth/internal/common"
)

// Walks one account through its whole lifecycle: confirmation, a first
// session, a second login that displaces the first, logout, and a final
// re-login. Token timestamps have second precision, so logins are spaced a
// second apart to get distinct tokens.
func TestSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-second scenario")
	}

	db, _ := newSQLMockDB(t)
	defer db.Close()
	ctx := context.Background()

	u := confirmedUser(t, "u1", "alice@example.com", "pw")
	u.Confirmed = false
	u.ConfirmationToken = strPtr("welcome-1")
	rm := &fakeRepoManager{u: newFakeUsersRepo(u), rv: newFakeRevokedRepo(), rc: &fakeRecoveryRepo{}}
	svc, issuer := newTestAuthService(t, db, rm, &fakeMailer{}, false)
	validator := NewSessionValidator(db, rm, issuer)

	// Unconfirmed accounts cannot log in.
	if _, err := svc.Login(ctx, "alice@example.com", "pw"); !errors.Is(err, common.ErrNotConfirmed) {
		t.Fatalf("want ErrNotConfirmed before confirmation, got %v", err)
	}
	if err := svc.Confirm(ctx, "welcome-1"); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	t1, err := svc.Login(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	if _, err := validator.Validate(ctx, t1); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	time.Sleep(time.Second)
	t2, err := svc.Login(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}
	if t2 == t1 {
		t.Fatalf("second login produced an identical token")
	}

	// The newer login displaces the older session without any blacklist entry.
	if _, err := validator.Validate(ctx, t1); !errors.Is(err, common.ErrUnauthenticated) {
		t.Fatalf("displaced token must be rejected, got %v", err)
	}
	if rm.rv.revoked[t1] {
		t.Fatalf("displacement must not touch the blacklist")
	}
	if _, err := validator.Validate(ctx, t2); err != nil {
		t.Fatalf("current token rejected: %v", err)
	}

	if err := svc.Logout(ctx, t2); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := validator.Validate(ctx, t2); !errors.Is(err, common.ErrUnauthenticated) {
		t.Fatalf("blacklisted token must be rejected, got %v", err)
	}

	// Logout does not lock the account out.
	time.Sleep(time.Second)
	t3, err := svc.Login(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("login after logout error: %v", err)
	}
	if _, err := validator.Validate(ctx, t3); err != nil {
		t.Fatalf("post-logout token rejected: %v", err)
	}
}

// Recovery end to end: request a token by mail, reset the password with it,
// and verify the token cannot be replayed.
func TestRecoveryLifecycle(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	ctx := context.Background()
	u := confirmedUser(t, "u1", "alice@example.com", "old-pw")
	mailer := &fakeMailer{}
	rm := &fakeRepoManager{u: newFakeUsersRepo(u), rv: newFakeRevokedRepo(), rc: &fakeRecoveryRepo{}}
	svc, _ := newTestAuthService(t, db, rm, mailer, false)

	if err := svc.Forget(ctx, "alice@example.com", "https://store.example/recover"); err != nil {
		t.Fatalf("Forget error: %v", err)
	}
	token := mailer.sent[0].token

	if err := svc.Recover(ctx, "alice@example.com", token, "new-pw"); err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// The old password is gone, the new one works.
	if _, err := svc.Login(ctx, "alice@example.com", "old-pw"); !errors.Is(err, common.ErrBadCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "new-pw"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}

	// Replay is rejected.
	if err := svc.Recover(ctx, "alice@example.com", token, "other-pw"); !errors.Is(err, common.ErrInvalidRecovery) {
		t.Fatalf("consumed token must not be replayable, got %v", err)
	}
}
