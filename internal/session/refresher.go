package session

import (
	"context"
	"errors"
	"log/slog"

	"storefront-client/internal/audit"
	"storefront-client/internal/auth"
	"storefront-client/internal/authapi"
	"storefront-client/internal/httpclient"
	"storefront-client/internal/metrics"
	"storefront-client/internal/tokenstore"
	"storefront-client/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Refresh triggers.
const (
	TriggerStartup      = "startup"
	TriggerPeriodic     = "periodic"
	TriggerUnauthorized = httpclient.TriggerUnauthorized
	TriggerManual       = "manual"
)

// Refresh outcomes reported to metrics.
const (
	outcomeSuccess        = "success"
	outcomeFailure        = "failure"
	outcomeNoRefreshToken = "no_refresh_token"
	outcomeSuperseded     = "superseded"
)

// RefreshAPI is the remote refresh endpoint. Wire it to a client without the
// bearer transport so an expired token is never attached to the call.
type RefreshAPI interface {
	RefreshToken(ctx context.Context, refreshToken string) (*authapi.AuthResponse, error)
}

// Refresher is the single refresh path shared by the periodic check, startup
// and the 401 interceptor. Overlapping calls share one in-flight request and
// receive the same result.
type Refresher struct {
	api     RefreshAPI
	tokens  *tokenstore.Store
	metrics *metrics.Collectors
	audit   *audit.Service
	log     *slog.Logger

	group       singleflight.Group
	onRefreshed func(ctx context.Context, resp *authapi.AuthResponse)
}

func NewRefresher(api RefreshAPI, tokens *tokenstore.Store, m *metrics.Collectors, a *audit.Service, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{api: api, tokens: tokens, metrics: m, audit: a, log: log}
}

// Refresh satisfies httpclient.Refresher.
func (r *Refresher) Refresh(ctx context.Context, trigger string) (string, error) {
	resp, err := r.RefreshSession(ctx, trigger)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// RefreshSession exchanges the stored refresh token for a new pair and
// persists it. A cancelled ctx abandons the wait, not the shared request.
func (r *Refresher) RefreshSession(ctx context.Context, trigger string) (*authapi.AuthResponse, error) {
	ch := r.group.DoChan("refresh", func() (any, error) {
		return r.refresh(context.WithoutCancel(ctx), trigger)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.ForRequest(ctx, r.log).Debug("joined in-flight token refresh", "trigger", trigger)
		}
		return res.Val.(*authapi.AuthResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Refresher) refresh(ctx context.Context, trigger string) (*authapi.AuthResponse, error) {
	log := logger.ForRequest(ctx, r.log).With("trigger", trigger)

	// Read before the refresh token so a Clear in between is detected.
	gen := r.tokens.Generation()
	refresh, err := r.tokens.RefreshToken(ctx)
	if err != nil {
		r.metrics.ObserveRefresh(trigger, outcomeFailure)
		return nil, &Error{Kind: KindStore, Message: MsgInvalidRefreshResp, Err: err}
	}
	if refresh == "" {
		r.metrics.ObserveRefresh(trigger, outcomeNoRefreshToken)
		return nil, &Error{Kind: KindNoRefreshToken, Message: MsgNoRefreshToken}
	}

	resp, err := r.api.RefreshToken(ctx, refresh)
	if err != nil {
		msg := resolveMessage(err, MsgInvalidRefreshResp)
		if errors.Is(err, authapi.ErrInvalidAuthResponse) {
			msg = MsgInvalidRefreshResp
		}
		log.Warn("token refresh failed", "err", err)
		r.metrics.ObserveRefresh(trigger, outcomeFailure)
		r.audit.Record(ctx, audit.Event{Type: audit.EventRefreshFailed, Trigger: trigger, Message: msg})
		return nil, &Error{Kind: KindRefreshFailed, Message: msg, Err: err}
	}

	// A service that does not rotate refresh tokens omits it; the stored one stays.
	if err := r.tokens.SetTokensIfCurrent(ctx, gen, resp.Token, resp.RefreshToken); err != nil {
		if errors.Is(err, tokenstore.ErrStale) {
			log.Info("session changed during refresh; new tokens dropped")
			r.metrics.ObserveRefresh(trigger, outcomeSuperseded)
			return nil, &Error{Kind: KindSuperseded, Message: MsgSessionChanged, Err: err}
		}
		r.metrics.ObserveRefresh(trigger, outcomeFailure)
		return nil, &Error{Kind: KindStore, Message: MsgInvalidRefreshResp, Err: err}
	}

	log.Info("token refreshed")
	r.metrics.ObserveRefresh(trigger, outcomeSuccess)
	r.audit.Record(ctx, audit.Event{
		Type:    audit.EventRefresh,
		Trigger: trigger,
		UserID:  auth.UserIDFromToken(resp.Token),
		Role:    auth.Role(resp.Token),
	})
	if r.onRefreshed != nil {
		r.onRefreshed(ctx, resp)
	}
	return resp, nil
}
