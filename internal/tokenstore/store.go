// Package tokenstore persists the session credentials: access token, refresh
// token and a cached user profile, on top of a pluggable key/value backend.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStale means the credentials were cleared or replaced after the caller
// read Generation. The write was dropped.
var ErrStale = errors.New("tokenstore: session changed")

// Persisted keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Backend is a client-local key/value store.
// Put and Delete must apply all given keys as one operation.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Profile is the denormalized user snapshot kept next to the tokens so the UI
// has display data without a round trip. It may go stale and is never used
// for authorization.
type Profile struct {
	PhoneNumber string `json:"phoneNumber"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
}

// Store is the sole owner of persisted session values.
type Store struct {
	backend Backend
	log     *slog.Logger

	// mu orders token writes against Clear; gen counts them.
	mu  sync.Mutex
	gen uint64
}

func New(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log}
}

// SetTokens persists each non-empty token. An empty argument leaves the stored
// value untouched.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putTokens(ctx, access, refresh)
}

// Generation identifies the current credential set. It changes on every
// token write and on Clear.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// SetTokensIfCurrent is SetTokens guarded by gen: it returns ErrStale without
// writing when the tokens were written or cleared since gen was read.
func (s *Store) SetTokensIfCurrent(ctx context.Context, gen uint64, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrStale
	}
	return s.putTokens(ctx, access, refresh)
}

func (s *Store) putTokens(ctx context.Context, access, refresh string) error {
	values := make(map[string]string, 2)
	if access != "" {
		values[KeyAccessToken] = access
	}
	if refresh != "" {
		values[KeyRefreshToken] = refresh
	}
	if len(values) == 0 {
		return nil
	}
	s.gen++
	if err := s.backend.Put(ctx, values); err != nil {
		return fmt.Errorf("tokenstore: set tokens: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SetUser persists the profile as JSON. A nil profile is ignored.
func (s *Store) SetUser(ctx context.Context, p *Profile) error {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("tokenstore: encode user: %w", err)
	}
	if err := s.backend.Put(ctx, map[string]string{KeyUser: string(b)}); err != nil {
		return fmt.Errorf("tokenstore: set user: %w", err)
	}
	return nil
}

// User returns the cached profile, or nil when absent. Corrupt data is logged
// and reported as absent.
func (s *Store) User(ctx context.Context) (*Profile, error) {
	raw, err := s.get(ctx, KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.Warn("cached user is not valid json; ignoring", "err", err)
		return nil, nil
	}
	return &p, nil
}

// Clear removes both tokens and the cached profile in one backend operation.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if err := s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("tokenstore: get %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
