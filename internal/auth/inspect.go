package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken means the token has no decodable payload segment.
var ErrMalformedToken = errors.New("auth: malformed token")

// DecodePayload returns the claim set in the payload segment of a JWT-shaped
// token. Header and signature are neither decoded nor verified; verification
// is the backend's job.
func DecodePayload(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, ErrMalformedToken
	}
	raw, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}
	return claims, nil
}

// TokenExpiration returns the exp claim as an instant with millisecond precision.
// ok is false when the token is absent, undecodable or has no exp.
func TokenExpiration(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims, err := DecodePayload(token)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(exp.UnixMilli()), true
}

// IsTokenExpired reports whether token is absent, undecodable, lacks exp, or
// expires at or before now.
func IsTokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiration(token)
	if !ok {
		return true
	}
	return now.UnixMilli() >= exp.UnixMilli()
}

// Role returns the first present of the role, authorities[0] and authority claims.
func Role(token string) string {
	if token == "" {
		return ""
	}
	claims, err := DecodePayload(token)
	if err != nil {
		return ""
	}
	return roleFromClaims(claims)
}

// UserIDFromToken returns the userId claim rendered as a decimal string.
func UserIDFromToken(token string) string {
	if token == "" {
		return ""
	}
	claims, err := DecodePayload(token)
	if err != nil {
		return ""
	}
	return userIDFromClaims(claims)
}

func roleFromClaims(claims jwt.MapClaims) string {
	if s, ok := claims[ClaimRole].(string); ok && s != "" {
		return s
	}
	if list, ok := claims[ClaimAuthorities].([]any); ok && len(list) > 0 {
		if s, ok := list[0].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := claims[ClaimAuthority].(string); ok && s != "" {
		return s
	}
	return ""
}

func userIDFromClaims(claims jwt.MapClaims) string {
	switch v := claims[ClaimUserID].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// TokenSource yields the currently stored access token ("" when absent).
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Inspector answers claim questions about the currently stored access token.
// Storage and decoding failures resolve to absence, never to errors.
type Inspector struct {
	tokens TokenSource
	log    *slog.Logger
	now    func() time.Time
}

func NewInspector(tokens TokenSource, log *slog.Logger) *Inspector {
	if log == nil {
		log = slog.Default()
	}
	return &Inspector{tokens: tokens, log: log, now: time.Now}
}

// WithClock overrides the time source.
func (i *Inspector) WithClock(now func() time.Time) *Inspector {
	i.now = now
	return i
}

func (i *Inspector) Now() time.Time { return i.now() }

// IsTokenExpired is IsTokenExpired evaluated against the inspector clock.
func (i *Inspector) IsTokenExpired(token string) bool {
	return IsTokenExpired(token, i.now())
}

// CurrentRole decodes the role of the stored access token.
func (i *Inspector) CurrentRole(ctx context.Context) string {
	claims, ok := i.CurrentPayload(ctx)
	if !ok {
		return ""
	}
	return roleFromClaims(claims)
}

// CurrentUserID returns the userId claim of the stored access token.
func (i *Inspector) CurrentUserID(ctx context.Context) string {
	claims, ok := i.CurrentPayload(ctx)
	if !ok {
		return ""
	}
	return userIDFromClaims(claims)
}

// CurrentPayload returns the full decoded claim map of the stored access token.
func (i *Inspector) CurrentPayload(ctx context.Context) (jwt.MapClaims, bool) {
	token, err := i.tokens.AccessToken(ctx)
	if err != nil {
		i.log.Warn("read access token failed", "err", err)
		return nil, false
	}
	if token == "" {
		return nil, false
	}
	claims, err := DecodePayload(token)
	if err != nil {
		i.log.Debug("access token not decodable", "err", err)
		return nil, false
	}
	return claims, true
}
