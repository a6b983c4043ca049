package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-client/internal/auth"
	"storefront-client/internal/config"
	"storefront-client/internal/httpclient"
	"storefront-client/internal/mockauth"

	"github.com/gin-gonic/gin"
)

func newTestClient(t *testing.T) (*Client, *mockauth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m, err := auth.NewManager(config.MockAuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	svc := mockauth.NewService(m)
	srv := httptest.NewServer(mockauth.Handlers{Service: svc, Tokens: m}.Router(nil))
	t.Cleanup(srv.Close)

	hc, err := httpclient.New(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("http client: %v", err)
	}
	return New(hc), svc
}

func TestRegisterThenLogin(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	req := RegisterRequest{PhoneNumber: "5550100", FirstName: "Grace", LastName: "H", Password: "pw"}
	if _, err := c.Register(ctx, req); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := c.Login(ctx, req.Credentials())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", resp)
	}
	p := resp.Profile()
	if p.PhoneNumber != "5550100" || p.FirstName != "Grace" || p.LastName != "H" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestLogin_BadCredentialsCarriesServerMessage(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Login(context.Background(), Credentials{PhoneNumber: "x", Password: "y"})
	se, ok := httpclient.AsStatusError(err)
	if !ok || se.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if se.Message != "Invalid phone number or password" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	c, svc := newTestClient(t)
	ctx := context.Background()
	if _, err := svc.Register("1", "pw", "A", "B", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, pair, err := svc.Login("1", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := c.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.Token == "" || resp.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected rotated pair, got %+v", resp)
	}

	if err := c.Logout(ctx, resp.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := c.RefreshToken(ctx, resp.RefreshToken); !httpclient.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
}

func TestRefresh_MissingTokenIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	hc, _ := httpclient.New(srv.URL, srv.Client())
	_, err := New(hc).RefreshToken(context.Background(), "r")
	if !errors.Is(err, ErrInvalidAuthResponse) {
		t.Fatalf("expected ErrInvalidAuthResponse, got %v", err)
	}
}
