package auth

import (
	"errors"
	"time"

	"storefront-client/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies HS256 token pairs. The storefront client never
// uses it against real backends; it backs the mock auth service.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.MockAuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("MOCK_AUTH_JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// TokenPair is the credential pair handed out on login, register and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (m *Manager) IssuePair(now time.Time, userID int64, phoneNumber string, authorities []string) (TokenPair, error) {
	access, err := m.issue(now, TokenTypeAccess, userID, phoneNumber, authorities, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	// refresh tokens do not carry authorities
	refresh, err := m.issue(now, TokenTypeRefresh, userID, phoneNumber, nil, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs a single access token with an explicit TTL.
func (m *Manager) IssueAccess(now time.Time, userID int64, phoneNumber string, authorities []string, ttl time.Duration) (string, error) {
	return m.issue(now, TokenTypeAccess, userID, phoneNumber, authorities, ttl)
}

func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.TokenType != expected {
		return Claims{}, errors.New("token_type mismatch")
	}
	if claims.UserID == 0 {
		return Claims{}, errors.New("userId missing")
	}
	if expected == TokenTypeAccess && len(claims.Authorities) == 0 {
		return Claims{}, errors.New("authorities missing in access token")
	}

	return claims, nil
}

func (m *Manager) issue(
	now time.Time,
	tokenType TokenType,
	userID int64,
	phoneNumber string,
	authorities []string,
	ttl time.Duration,
) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phoneNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID:      userID,
		Authorities: authorities,
		TokenType:   tokenType,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}
