// Package session owns the client-side authentication lifecycle: startup
// restore, login, register, silent refresh, logout and the periodic expiry
// check. One Controller represents one session and is injected into callers.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront-client/internal/audit"
	"storefront-client/internal/auth"
	"storefront-client/internal/authapi"
	"storefront-client/internal/metrics"
	"storefront-client/internal/tokenstore"
	"storefront-client/pkg/logger"
)

type Phase string

const (
	PhaseUninitialized   Phase = "uninitialized"
	PhaseLoading         Phase = "loading"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
)

// State is a snapshot of the session as the UI sees it.
type State struct {
	Phase         Phase               `json:"phase"`
	User          *tokenstore.Profile `json:"user"`
	Role          string              `json:"role,omitempty"`
	Authenticated bool                `json:"isAuthenticated"`
	Loading       bool                `json:"loading"`
}

// AuthAPI is the slice of the auth service the controller calls directly.
type AuthAPI interface {
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error)
	Login(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Options struct {
	// CheckInterval is the period of the proactive expiry check. Default 1m.
	CheckInterval time.Duration
	// Lookahead is how close to expiry a token gets refreshed. Default 5m.
	Lookahead time.Duration

	Clock   func() time.Time
	Log     *slog.Logger
	Metrics *metrics.Collectors
	Audit   *audit.Service
}

type Controller struct {
	api       AuthAPI
	tokens    *tokenstore.Store
	refresher *Refresher
	inspector *auth.Inspector

	interval  time.Duration
	lookahead time.Duration
	log       *slog.Logger
	metrics   *metrics.Collectors
	audit     *audit.Service

	mu    sync.Mutex
	state State

	// becameAuthenticated wakes Run for an immediate check.
	becameAuthenticated chan struct{}
}

func NewController(api AuthAPI, tokens *tokenstore.Store, refresher *Refresher, opts Options) *Controller {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = 5 * time.Minute
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	inspector := auth.NewInspector(tokens, opts.Log)
	if opts.Clock != nil {
		inspector.WithClock(opts.Clock)
	}

	c := &Controller{
		api:                 api,
		tokens:              tokens,
		refresher:           refresher,
		inspector:           inspector,
		interval:            opts.CheckInterval,
		lookahead:           opts.Lookahead,
		log:                 opts.Log.With("component", "session"),
		metrics:             opts.Metrics,
		audit:               opts.Audit,
		state:               State{Phase: PhaseUninitialized},
		becameAuthenticated: make(chan struct{}, 1),
	}
	refresher.onRefreshed = c.applyRefresh
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Inspector exposes claim lookups on the stored access token.
func (c *Controller) Inspector() *auth.Inspector { return c.inspector }

// Init restores the session from the token store. It runs once; later calls
// return the current state. Loading is always cleared on return.
func (c *Controller) Init(ctx context.Context) State {
	c.mu.Lock()
	if c.state.Phase != PhaseUninitialized {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s
	}
	c.state = State{Phase: PhaseLoading, Loading: true}
	c.mu.Unlock()
	c.metrics.ObserveTransition(string(PhaseLoading))

	next, err := c.restore(ctx)
	switch {
	case err != nil && (abandoned(ctx, err) || IsKind(err, KindSuperseded)):
		c.logFor(ctx).Info("session restore interrupted; tokens kept", "err", err)
		next = State{Phase: PhaseUnauthenticated}
	case err != nil:
		c.logFor(ctx).Error("session restore failed; clearing tokens", "err", err)
		if cerr := c.tokens.Clear(ctx); cerr != nil {
			c.logFor(ctx).Error("clear tokens failed", "err", cerr)
		}
		next = State{Phase: PhaseUnauthenticated}
	}
	next.Loading = false

	c.set(next)
	c.logFor(ctx).Info("session initialized", "phase", next.Phase, "role", next.Role)
	return c.Snapshot()
}

// restore decides the startup state. A returned error means "clear and
// start unauthenticated", unless the caller gave up or the session changed
// underneath the refresh.
func (c *Controller) restore(ctx context.Context) (State, error) {
	user, err := c.tokens.User(ctx)
	if err != nil {
		return State{}, err
	}
	access, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return State{}, err
	}
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return State{}, err
	}
	if access == "" || refresh == "" {
		return State{Phase: PhaseUnauthenticated}, nil
	}

	if !c.inspector.IsTokenExpired(access) {
		// A valid token without a cached profile does not restore the session.
		if user == nil {
			c.logFor(ctx).Info("access token valid but no cached profile; staying signed out")
			return State{Phase: PhaseUnauthenticated}, nil
		}
		return State{
			Phase:         PhaseAuthenticated,
			Authenticated: true,
			User:          user,
			Role:          auth.Role(access),
		}, nil
	}

	resp, err := c.refresher.RefreshSession(ctx, TriggerStartup)
	if err != nil && (abandoned(ctx, err) || IsKind(err, KindSuperseded)) {
		return State{}, err
	}
	if err != nil {
		c.logFor(ctx).Info("startup refresh failed; clearing tokens", "err", err)
		if cerr := c.tokens.Clear(ctx); cerr != nil {
			return State{}, cerr
		}
		return State{Phase: PhaseUnauthenticated}, nil
	}
	if user == nil {
		user = resp.Profile()
		if err := c.tokens.SetUser(ctx, user); err != nil {
			return State{}, err
		}
	}
	return State{
		Phase:         PhaseAuthenticated,
		Authenticated: true,
		User:          user,
		Role:          c.inspector.CurrentRole(ctx),
	}, nil
}

// Login exchanges credentials for a token pair. On failure the session state
// is unchanged and the returned *Error carries a displayable message.
func (c *Controller) Login(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error) {
	resp, err := c.api.Login(ctx, creds)
	if err != nil {
		msg := resolveMessage(err, MsgLoginFailed)
		c.logFor(ctx).Info("login failed", "err", err)
		c.audit.Record(ctx, audit.Event{Type: audit.EventLoginFailed, PhoneNumber: creds.PhoneNumber, Message: msg})
		return nil, &Error{Kind: classify(err), Message: msg, Err: err}
	}

	if err := c.tokens.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return nil, &Error{Kind: KindStore, Message: MsgLoginFailed, Err: err}
	}
	profile := resp.Profile()
	if err := c.tokens.SetUser(ctx, profile); err != nil {
		return nil, &Error{Kind: KindStore, Message: MsgLoginFailed, Err: err}
	}
	role := c.inspector.CurrentRole(ctx)

	c.set(State{Phase: PhaseAuthenticated, Authenticated: true, User: profile, Role: role})
	c.logFor(ctx).Info("logged in", "role", role)
	c.audit.Record(ctx, audit.Event{
		Type:        audit.EventLogin,
		UserID:      auth.UserIDFromToken(resp.Token),
		Role:        role,
		PhoneNumber: profile.PhoneNumber,
	})
	return resp, nil
}

// Register creates the account and then logs in with the submitted phone
// number and password.
func (c *Controller) Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error) {
	if _, err := c.api.Register(ctx, req); err != nil {
		c.logFor(ctx).Info("registration failed", "err", err)
		return nil, &Error{Kind: classify(err), Message: resolveMessage(err, MsgRegisterFailed), Err: err}
	}
	c.audit.Record(ctx, audit.Event{Type: audit.EventRegister, PhoneNumber: req.PhoneNumber})

	resp, err := c.Login(ctx, req.Credentials())
	if err != nil {
		return nil, &Error{Kind: KindAutoLoginFailed, Message: MsgAutoLoginFailed, Err: err}
	}
	return resp, nil
}

// Refresh runs a silent refresh through the shared Refresher.
func (c *Controller) Refresh(ctx context.Context, trigger string) (*authapi.AuthResponse, error) {
	return c.refresher.RefreshSession(ctx, trigger)
}

// applyRefresh runs after every successful refresh, whatever triggered it.
// Startup owns the state while loading.
func (c *Controller) applyRefresh(ctx context.Context, resp *authapi.AuthResponse) {
	role := auth.Role(resp.Token)

	c.mu.Lock()
	if c.state.Phase != PhaseAuthenticated {
		c.mu.Unlock()
		return
	}
	c.state.Role = role
	rebuilt := c.state.User == nil
	if rebuilt {
		c.state.User = resp.Profile()
	}
	c.mu.Unlock()

	if rebuilt {
		if err := c.tokens.SetUser(ctx, resp.Profile()); err != nil {
			c.logFor(ctx).Warn("persist rebuilt profile failed", "err", err)
		}
	}
}

// Logout always ends the session locally. The remote call is best-effort; an
// error is returned only when the token store could not be cleared.
func (c *Controller) Logout(ctx context.Context) error {
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		c.logFor(ctx).Warn("read refresh token for logout failed", "err", err)
	}
	if refresh != "" {
		if err := c.api.Logout(ctx, refresh); err != nil {
			c.logFor(ctx).Warn("remote logout failed", "err", err)
		}
	}

	prev := c.Snapshot()
	clearErr := c.tokens.Clear(ctx)
	c.set(State{Phase: PhaseUnauthenticated})

	var phone string
	if prev.User != nil {
		phone = prev.User.PhoneNumber
	}
	c.logFor(ctx).Info("logged out")
	c.audit.Record(ctx, audit.Event{Type: audit.EventLogout, PhoneNumber: phone, Role: prev.Role})

	if clearErr != nil {
		return &Error{Kind: KindStore, Message: "Logout failed to clear stored tokens", Err: clearErr}
	}
	return nil
}

// Expire resets the in-memory session after the HTTP layer gave up on it.
// The transport has already cleared the stored tokens.
func (c *Controller) Expire(reason string) {
	prev := c.Snapshot()
	if prev.Phase == PhaseUnauthenticated {
		return
	}
	c.set(State{Phase: PhaseUnauthenticated})
	c.log.Info("session expired", "reason", reason)
	c.audit.Record(context.Background(), audit.Event{Type: audit.EventSessionExpired, Role: prev.Role, Message: reason})
}

// logFor tags c.log with the request id carried by ctx, if any.
func (c *Controller) logFor(ctx context.Context) *slog.Logger {
	return logger.ForRequest(ctx, c.log)
}

func (c *Controller) set(next State) {
	c.mu.Lock()
	prev := c.state.Phase
	c.state = next
	c.mu.Unlock()

	if prev == next.Phase {
		return
	}
	c.metrics.ObserveTransition(string(next.Phase))
	if next.Phase == PhaseAuthenticated {
		select {
		case c.becameAuthenticated <- struct{}{}:
		default:
		}
	}
}
