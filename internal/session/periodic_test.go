package session

import (
	"context"
	"testing"
	"time"

	"storefront-client/internal/authapi"
)

func loggedIn(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := newFixture(t, opts)
	f.ctrl.Init(context.Background())
	if _, err := f.ctrl.Login(context.Background(), authapi.Credentials{PhoneNumber: testPhone, Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return f
}

// shortAccess replaces the stored access token with one expiring in ttl.
func (f *fixture) shortAccess(ttl time.Duration) string {
	f.t.Helper()
	tok, err := f.mgr.IssueAccess(time.Now(), f.user.ID, testPhone, f.user.Authorities, ttl)
	if err != nil {
		f.t.Fatalf("issue: %v", err)
	}
	if err := f.tokens.SetTokens(context.Background(), tok, ""); err != nil {
		f.t.Fatalf("set: %v", err)
	}
	return tok
}

func TestCheckExpiry_RefreshesInsideLookahead(t *testing.T) {
	f := loggedIn(t, Options{})
	old := f.shortAccess(2 * time.Minute)

	refreshed, err := f.ctrl.CheckExpiry(context.Background())
	if err != nil || !refreshed {
		t.Fatalf("expected refresh, got refreshed=%v err=%v", refreshed, err)
	}
	if a, _ := f.tokens.AccessToken(context.Background()); a == old {
		t.Fatalf("expected access token replaced")
	}
	if !f.ctrl.Snapshot().Authenticated {
		t.Fatalf("session should stay authenticated")
	}
}

func TestCheckExpiry_SkipsOutsideLookahead(t *testing.T) {
	f := loggedIn(t, Options{})
	f.shortAccess(10 * time.Minute)

	refreshed, err := f.ctrl.CheckExpiry(context.Background())
	if err != nil || refreshed {
		t.Fatalf("expected no refresh, got refreshed=%v err=%v", refreshed, err)
	}
	if f.svc.RefreshCalls() != 0 {
		t.Fatalf("expected no refresh call")
	}
}

func TestCheckExpiry_SkipsAlreadyExpired(t *testing.T) {
	f := loggedIn(t, Options{})
	_ = f.tokens.SetTokens(context.Background(), f.expiredAccess(), "")

	if refreshed, _ := f.ctrl.CheckExpiry(context.Background()); refreshed {
		t.Fatalf("expired tokens are left to the 401 path")
	}
}

func TestCheckExpiry_SkipsWhenUnauthenticated(t *testing.T) {
	f := newFixture(t, Options{})
	pair := f.livePair()
	_ = f.tokens.SetTokens(context.Background(), pair.AccessToken, pair.RefreshToken)

	if refreshed, _ := f.ctrl.CheckExpiry(context.Background()); refreshed {
		t.Fatalf("check must not run for a signed-out session")
	}
}

func TestCheckExpiry_FailureForcesLogout(t *testing.T) {
	f := loggedIn(t, Options{})
	f.shortAccess(time.Minute)
	f.svc.SetRefreshOutage(true)

	refreshed, err := f.ctrl.CheckExpiry(context.Background())
	if refreshed || !IsKind(err, KindRefreshFailed) {
		t.Fatalf("expected refresh failure, got refreshed=%v err=%v", refreshed, err)
	}
	if f.ctrl.Snapshot().Authenticated {
		t.Fatalf("expected forced logout")
	}
	f.assertCleared()
}

func TestRun_ChecksWhenSessionBecomesAuthenticated(t *testing.T) {
	// 15m tokens look 3m from expiry on this clock.
	clock := func() time.Time { return time.Now().Add(12 * time.Minute) }
	f := newFixture(t, Options{Clock: clock, CheckInterval: time.Hour})
	f.ctrl.Init(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.ctrl.Run(ctx)
		close(done)
	}()

	if _, err := f.ctrl.Login(context.Background(), authapi.Credentials{PhoneNumber: testPhone, Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.svc.RefreshCalls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.svc.RefreshCalls() != 1 {
		t.Fatalf("expected one immediate refresh, got %d", f.svc.RefreshCalls())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}
