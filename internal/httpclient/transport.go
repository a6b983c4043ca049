package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"storefront-client/internal/tokenstore"
)

// TokenStore is the slice of the token store the transport needs. The
// transport reads tokens and clears them on irrecoverable failures; writes
// happen only inside the shared Refresher.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Refresher exchanges the stored refresh token for a new pair, persists it
// and returns the new access token. Errors wrapping tokenstore.ErrStale or the
// caller's ctx.Err() do not end the session.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (string, error)
}

// Observer receives the outcome of each 401 recovery attempt.
type Observer interface {
	ObserveUnauthorized(outcome string)
}

// TriggerUnauthorized labels refreshes started by a 401 response.
const TriggerUnauthorized = "unauthorized"

// Outcomes reported to the Observer.
const (
	OutcomeRetried        = "retried"
	OutcomeNoRefreshToken = "no_refresh_token"
	OutcomeRefreshFailed  = "refresh_failed"
	OutcomeExhausted      = "exhausted"
	// OutcomeAbandoned: the caller stopped waiting; the shared refresh goes on.
	OutcomeAbandoned = "abandoned"
	// OutcomeSuperseded: logout or a new login won the race with the refresh.
	OutcomeSuperseded = "superseded"
)

type retryKey struct{}

type retryMark int

const (
	markSkip retryMark = iota + 1
	markRetried
)

// WithoutRefresh marks requests made with ctx so a 401 is surfaced directly
// instead of triggering a refresh. Credential exchanges (login, register) use
// it: their 401 means bad credentials, not an expired session.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, markSkip)
}

func retryMarkOf(ctx context.Context) retryMark {
	v, _ := ctx.Value(retryKey{}).(retryMark)
	return v
}

// Transport attaches the stored bearer token to every request and recovers
// from one 401 per request by refreshing the token pair and replaying the
// request.
type Transport struct {
	Base      http.RoundTripper
	Tokens    TokenStore
	Refresher Refresher

	// OnSessionExpired is the "send the user to login" hook. It runs after the
	// stored tokens were cleared.
	OnSessionExpired func(reason string)

	Observer Observer
	Log      *slog.Logger
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	body, getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	token, err := t.Tokens.AccessToken(ctx)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, fmt.Errorf("httpclient: read access token: %w", err)
	}

	first := req.Clone(ctx)
	first.Body = body
	first.GetBody = getBody
	setBearer(first.Header, token)

	resp, err := t.base().RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	switch retryMarkOf(ctx) {
	case markSkip:
		return resp, nil
	case markRetried:
		t.observe(OutcomeExhausted)
		return resp, nil
	}

	// Mark before refreshing so the replay can never loop.
	retryCtx := context.WithValue(ctx, retryKey{}, markRetried)
	log := t.logger().With("method", req.Method, "url", req.URL.Redacted())

	refresh, err := t.Tokens.RefreshToken(ctx)
	if err != nil {
		drain(resp)
		return nil, fmt.Errorf("httpclient: read refresh token: %w", err)
	}
	if refresh == "" {
		log.Info("unauthorized without refresh token; ending session")
		t.observe(OutcomeNoRefreshToken)
		t.expire(ctx, "no refresh token")
		return resp, nil
	}

	newToken, err := t.Refresher.Refresh(ctx, TriggerUnauthorized)
	if err != nil {
		drain(resp)
		switch {
		case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			log.Debug("caller gave up during token refresh", "err", err)
			t.observe(OutcomeAbandoned)
			return nil, err
		case errors.Is(err, tokenstore.ErrStale):
			log.Info("session changed during token refresh", "err", err)
			t.observe(OutcomeSuperseded)
			return nil, err
		}
		log.Warn("token refresh after 401 failed; ending session", "err", err)
		t.observe(OutcomeRefreshFailed)
		t.expire(ctx, "refresh failed")
		return nil, err
	}
	drain(resp)

	retry := req.Clone(retryCtx)
	retry.Body = nil
	retry.GetBody = getBody
	if getBody != nil {
		if retry.Body, err = getBody(); err != nil {
			return nil, fmt.Errorf("httpclient: replay body: %w", err)
		}
	}
	setBearer(retry.Header, newToken)

	t.observe(OutcomeRetried)
	resp, err = t.base().RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.observe(OutcomeExhausted)
	}
	return resp, nil
}

func (t *Transport) expire(ctx context.Context, reason string) {
	if err := t.Tokens.Clear(ctx); err != nil {
		t.logger().Error("clear tokens failed", "err", err)
	}
	if t.OnSessionExpired != nil {
		t.OnSessionExpired(reason)
	}
}

func (t *Transport) observe(outcome string) {
	if t.Observer != nil {
		t.Observer.ObserveUnauthorized(outcome)
	}
}

func setBearer(h http.Header, token string) {
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
		return
	}
	h.Del("Authorization")
}

// replayableBody returns the body for the first attempt plus a factory for
// replays. Bodies without GetBody are buffered once.
func replayableBody(req *http.Request) (io.ReadCloser, func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil, nil
	}
	if req.GetBody != nil {
		return req.Body, req.GetBody, nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("httpclient: buffer body: %w", err)
	}
	getBody := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	body, _ := getBody()
	return body, getBody, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
