package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"storefront-client/internal/authapi"
	"storefront-client/internal/httpclient"
)

// ErrorKind classifies session failures.
type ErrorKind string

const (
	// KindTransport: no usable response from the backend.
	KindTransport ErrorKind = "transport"
	// KindRejected: the backend answered with a non-2xx status or an unusable body.
	KindRejected        ErrorKind = "rejected"
	KindAutoLoginFailed ErrorKind = "auto_login_failed"
	KindNoRefreshToken  ErrorKind = "no_refresh_token"
	KindRefreshFailed   ErrorKind = "refresh_failed"
	KindStore           ErrorKind = "store"
	// KindSuperseded: logout or a new login landed while the refresh was in
	// flight; the refreshed pair was dropped.
	KindSuperseded ErrorKind = "superseded"
)

// User-facing fallback messages.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegisterFailed     = "Registration failed"
	MsgAutoLoginFailed    = "Registration successful, but auto-login failed. Please login manually."
	MsgNoRefreshToken     = "No refresh token"
	MsgInvalidRefreshResp = "Invalid refresh token response"
	MsgSessionChanged     = "Session changed during refresh"
)

// Error is the result of a failed session operation. Message is safe to show
// to the user as-is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("session: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a session Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// Message returns the user-facing message of err, or err.Error() for foreign errors.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func classify(err error) ErrorKind {
	if _, ok := httpclient.AsStatusError(err); ok {
		return KindRejected
	}
	if errors.Is(err, authapi.ErrInvalidAuthResponse) {
		return KindRejected
	}
	return KindTransport
}

// resolveMessage picks the server message, then the transport error message,
// then fallback.
func resolveMessage(err error, fallback string) string {
	if se, ok := httpclient.AsStatusError(err); ok {
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("Request failed with status code %d", se.Status)
	}
	if errors.Is(err, authapi.ErrInvalidAuthResponse) {
		return fallback
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return fallback
}

// abandoned reports whether err only means the caller stopped waiting.
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
