package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"storefront-client/internal/audit"
	"storefront-client/internal/auth"
	"storefront-client/internal/authapi"
	"storefront-client/internal/config"
	"storefront-client/internal/httpclient"
	"storefront-client/internal/metrics"
	"storefront-client/internal/mockauth"
	"storefront-client/internal/tokenstore"
	"storefront-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	testPhone    = "5550123"
	testPassword = "s3cret"
)

type fixture struct {
	t         *testing.T
	tokens    *tokenstore.Store
	mgr       *auth.Manager
	svc       *mockauth.Service
	srv       *httptest.Server
	hits      *atomic.Int32
	api       *authapi.Client
	refresher *Refresher
	ctrl      *Controller
	events    *audit.MemoryRepo
	user      *mockauth.User
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr, err := auth.NewManager(config.MockAuthConfig{
		JWTSecret:       "session-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	svc := mockauth.NewService(mgr)
	u, err := svc.Register(testPhone, testPassword, "Ada", "Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	hits := &atomic.Int32{}
	router := mockauth.Handlers{Service: svc, Tokens: mgr}.Router(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	hc, err := httpclient.New(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("http client: %v", err)
	}
	api := authapi.New(hc)

	log := logger.Discard()
	tokens := tokenstore.New(tokenstore.NewMemoryBackend(), log)
	events := audit.NewMemoryRepo(0)
	if opts.Audit == nil {
		opts.Audit = audit.NewService(events, "test", log)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}
	opts.Log = log

	refresher := NewRefresher(api, tokens, opts.Metrics, opts.Audit, log)
	ctrl := NewController(api, tokens, refresher, opts)

	return &fixture{
		t:         t,
		tokens:    tokens,
		mgr:       mgr,
		svc:       svc,
		srv:       srv,
		hits:      hits,
		api:       api,
		refresher: refresher,
		ctrl:      ctrl,
		events:    events,
		user:      u,
	}
}

// livePair logs in against the mock service directly, bypassing the controller.
func (f *fixture) livePair() auth.TokenPair {
	f.t.Helper()
	_, pair, err := f.svc.Login(testPhone, testPassword)
	if err != nil {
		f.t.Fatalf("login: %v", err)
	}
	return pair
}

// expiredAccess issues an access token that expired a minute ago.
func (f *fixture) expiredAccess() string {
	f.t.Helper()
	tok, err := f.mgr.IssueAccess(time.Now().Add(-time.Hour), f.user.ID, testPhone, f.user.Authorities, 59*time.Minute)
	if err != nil {
		f.t.Fatalf("issue: %v", err)
	}
	return tok
}

func (f *fixture) seed(access, refresh string, user *tokenstore.Profile) {
	f.t.Helper()
	ctx := context.Background()
	if err := f.tokens.SetTokens(ctx, access, refresh); err != nil {
		f.t.Fatalf("seed tokens: %v", err)
	}
	if err := f.tokens.SetUser(ctx, user); err != nil {
		f.t.Fatalf("seed user: %v", err)
	}
}

func (f *fixture) assertCleared() {
	f.t.Helper()
	ctx := context.Background()
	a, _ := f.tokens.AccessToken(ctx)
	r, _ := f.tokens.RefreshToken(ctx)
	u, _ := f.tokens.User(ctx)
	if a != "" || r != "" || u != nil {
		f.t.Fatalf("expected token store cleared, got access=%t refresh=%t user=%v", a != "", r != "", u)
	}
}

func (f *fixture) eventTypes() []audit.EventType {
	evs, _ := f.events.List(context.Background(), 0)
	out := make([]audit.EventType, 0, len(evs))
	for i := len(evs) - 1; i >= 0; i-- {
		out = append(out, evs[i].Type)
	}
	return out
}
