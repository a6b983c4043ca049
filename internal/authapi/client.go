// Package authapi is the client for the remote auth service endpoints.
package authapi

import (
	"context"
	"errors"
	"fmt"

	"storefront-client/internal/httpclient"
	"storefront-client/internal/tokenstore"
)

// ErrInvalidAuthResponse is returned when a 2xx auth response carries no access token.
var ErrInvalidAuthResponse = errors.New("authapi: invalid auth response")

const (
	pathRegister = "/auth/register"
	pathLogin    = "/auth/login"
	pathRefresh  = "/auth/refresh-token"
	pathLogout   = "/auth/logout"
)

type Credentials struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type RegisterRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
}

// Credentials returns the login pair used for the automatic login after registration.
func (r RegisterRequest) Credentials() Credentials {
	return Credentials{PhoneNumber: r.PhoneNumber, Password: r.Password}
}

// AuthResponse is the body of login and refresh responses.
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
}

// Profile builds the cached profile snapshot from the response fields.
func (r *AuthResponse) Profile() *tokenstore.Profile {
	return &tokenstore.Profile{
		PhoneNumber: r.PhoneNumber,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
	}
}

// RegisterResponse is whatever the auth service answers on registration; only
// the message is read.
type RegisterResponse struct {
	Message     string `json:"message,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Client talks to the auth service. Login and register go through the
// authorized chain with refresh disabled; refresh and logout should use a
// bare http.Client so no bearer header is attached.
type Client struct {
	http *httpclient.Client
}

func New(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.http.Post(httpclient.WithoutRefresh(ctx), pathRegister, req, &out); err != nil {
		return nil, fmt.Errorf("authapi: register: %w", err)
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.http.Post(httpclient.WithoutRefresh(ctx), pathLogin, creds, &out); err != nil {
		return nil, fmt.Errorf("authapi: login: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("authapi: login: %w", ErrInvalidAuthResponse)
	}
	return &out, nil
}

// RefreshToken exchanges a refresh token for a new pair. The response may omit
// refreshToken when the service does not rotate it.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.http.Post(httpclient.WithoutRefresh(ctx), pathRefresh, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, fmt.Errorf("authapi: refresh: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("authapi: refresh: %w", ErrInvalidAuthResponse)
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if err := c.http.Post(httpclient.WithoutRefresh(ctx), pathLogout, refreshRequest{RefreshToken: refreshToken}, nil); err != nil {
		return fmt.Errorf("authapi: logout: %w", err)
	}
	return nil
}
