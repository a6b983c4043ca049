// Package mockauth is an in-memory stand-in for the storefront auth service.
// It speaks the same four endpoints, issues real HS256 tokens and rotates
// refresh tokens, so local development and tests run against genuine JWTs.
package mockauth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"storefront-client/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("mockauth: phone number already registered")
	ErrInvalidCredentials = errors.New("mockauth: invalid phone number or password")
	ErrInvalidRefresh     = errors.New("mockauth: invalid refresh token")
	ErrInvalidUser        = errors.New("mockauth: phone number and password required")
)

// RoleCustomer is granted to self-registered users.
const RoleCustomer = "ROLE_CUSTOMER"

// User is a registered account. PasswordHash is bcrypt.
type User struct {
	ID           int64
	PhoneNumber  string
	FirstName    string
	LastName     string
	Email        string
	Authorities  []string
	PasswordHash []byte
}

// Service holds users and the set of live refresh tokens.
type Service struct {
	tokens *auth.Manager
	clock  func() time.Time

	mu      sync.Mutex
	nextID  int64
	users   map[string]*User
	refresh map[string]string // refresh token -> phone number

	refreshCalls  int
	refreshOutage bool
}

func NewService(tokens *auth.Manager) *Service {
	return &Service{
		tokens:  tokens,
		clock:   time.Now,
		nextID:  1,
		users:   make(map[string]*User),
		refresh: make(map[string]string),
	}
}

// WithClock replaces the issuing clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

// Register creates an account. Empty authorities default to ROLE_CUSTOMER.
func (s *Service) Register(phone, password, firstName, lastName, email string, authorities ...string) (*User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	if len(authorities) == 0 {
		authorities = []string{RoleCustomer}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[phone]; ok {
		return nil, ErrUserExists
	}
	u := &User{
		ID:           s.nextID,
		PhoneNumber:  phone,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Authorities:  append([]string(nil), authorities...),
		PasswordHash: hash,
	}
	s.nextID++
	s.users[phone] = u
	return u, nil
}

// Login checks the password and issues a fresh pair.
func (s *Service) Login(phone, password string) (*User, auth.TokenPair, error) {
	s.mu.Lock()
	u, ok := s.users[strings.TrimSpace(phone)]
	s.mu.Unlock()
	if !ok {
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issue(u)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh redeems a live refresh token. The redeemed token is revoked and a
// new pair is returned.
func (s *Service) Refresh(refreshToken string) (*User, auth.TokenPair, error) {
	s.mu.Lock()
	s.refreshCalls++
	if s.refreshOutage {
		s.mu.Unlock()
		return nil, auth.TokenPair{}, ErrInvalidRefresh
	}
	phone, ok := s.refresh[refreshToken]
	if ok {
		delete(s.refresh, refreshToken)
	}
	u := s.users[phone]
	s.mu.Unlock()

	if !ok || u == nil {
		return nil, auth.TokenPair{}, ErrInvalidRefresh
	}
	if _, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh, s.clock()); err != nil {
		return nil, auth.TokenPair{}, ErrInvalidRefresh
	}
	pair, err := s.issue(u)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.refresh, refreshToken)
	s.mu.Unlock()
}

// User looks up an account by phone number.
func (s *Service) User(phone string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	return u, ok
}

// RefreshCalls counts refresh attempts, including failed ones.
func (s *Service) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// SetRefreshOutage makes every refresh attempt fail while on.
func (s *Service) SetRefreshOutage(on bool) {
	s.mu.Lock()
	s.refreshOutage = on
	s.mu.Unlock()
}

// RevokeAll drops every live refresh token.
func (s *Service) RevokeAll() {
	s.mu.Lock()
	s.refresh = make(map[string]string)
	s.mu.Unlock()
}

func (s *Service) issue(u *User) (auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.PhoneNumber, u.Authorities)
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.mu.Lock()
	s.refresh[pair.RefreshToken] = u.PhoneNumber
	s.mu.Unlock()
	return pair, nil
}
