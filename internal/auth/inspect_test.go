package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(context.Context) (string, error) { return s.token, s.err }

func TestIsTokenExpired_UndecodableIsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	for _, tok := range []string{
		"",
		"not-a-jwt",
		"a.b.c",
		"eyJhbGciOiJIUzI1NiJ9.!!!.sig",
		signed(t, jwt.MapClaims{"userId": 1}),
	} {
		if !IsTokenExpired(tok, now) {
			t.Fatalf("expected %q to be treated as expired", tok)
		}
		if _, ok := TokenExpiration(tok); ok {
			t.Fatalf("expected no expiration for %q", tok)
		}
	}
}

func TestIsTokenExpired_Boundaries(t *testing.T) {
	now := time.Unix(1700000000, 0)

	past := signed(t, jwt.MapClaims{"exp": now.Add(-time.Second).Unix()})
	if !IsTokenExpired(past, now) {
		t.Fatalf("expected past exp to be expired")
	}

	future := signed(t, jwt.MapClaims{"exp": now.Add(time.Second).Unix()})
	if IsTokenExpired(future, now) {
		t.Fatalf("expected future exp to be valid")
	}

	exact := signed(t, jwt.MapClaims{"exp": now.Unix()})
	if !IsTokenExpired(exact, now) {
		t.Fatalf("expected exp == now to be expired")
	}
}

func TestTokenExpiration_MillisecondInstant(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"exp": 1700000000})
	exp, ok := TokenExpiration(tok)
	if !ok {
		t.Fatalf("expected expiration")
	}
	if exp.UnixMilli() != 1700000000000 {
		t.Fatalf("unexpected expiration %d", exp.UnixMilli())
	}
}

func TestRole_ClaimPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"role wins", jwt.MapClaims{"role": "ROLE_ADMIN", "authorities": []string{"ROLE_SELLER"}, "authority": "X"}, "ROLE_ADMIN"},
		{"authorities first element", jwt.MapClaims{"authorities": []string{"ROLE_SELLER", "ROLE_ADMIN"}}, "ROLE_SELLER"},
		{"authority fallback", jwt.MapClaims{"authority": "ROLE_CUSTOMER"}, "ROLE_CUSTOMER"},
		{"empty authorities falls through", jwt.MapClaims{"authorities": []string{}, "authority": "ROLE_CUSTOMER"}, "ROLE_CUSTOMER"},
		{"none", jwt.MapClaims{"exp": 1}, ""},
	}
	for _, tc := range cases {
		if got := Role(signed(t, tc.claims)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
	if Role("garbage") != "" {
		t.Fatalf("expected empty role for garbage token")
	}
}

func TestUserIDFromToken_NumberAndString(t *testing.T) {
	if got := UserIDFromToken(signed(t, jwt.MapClaims{"userId": 42})); got != "42" {
		t.Fatalf("expected 42, got %q", got)
	}
	if got := UserIDFromToken(signed(t, jwt.MapClaims{"userId": "u-7"})); got != "u-7" {
		t.Fatalf("expected u-7, got %q", got)
	}
	if got := UserIDFromToken(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestInspector_CurrentClaims(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"userId": 9, "authorities": []string{"ROLE_SELLER"}, "exp": 4102444800})
	in := NewInspector(staticTokens{token: tok}, nil)

	if got := in.CurrentRole(context.Background()); got != "ROLE_SELLER" {
		t.Fatalf("expected ROLE_SELLER, got %q", got)
	}
	if got := in.CurrentUserID(context.Background()); got != "9" {
		t.Fatalf("expected 9, got %q", got)
	}
	payload, ok := in.CurrentPayload(context.Background())
	if !ok || payload["userId"] != float64(9) {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestInspector_AbsenceNeverErrors(t *testing.T) {
	for _, src := range []staticTokens{
		{},
		{token: "garbage"},
		{err: errors.New("store down")},
	} {
		in := NewInspector(src, nil)
		if in.CurrentRole(context.Background()) != "" {
			t.Fatalf("expected empty role")
		}
		if _, ok := in.CurrentPayload(context.Background()); ok {
			t.Fatalf("expected no payload")
		}
	}
}

func TestInspector_Clock(t *testing.T) {
	now := time.Unix(1700000000, 0)
	in := NewInspector(staticTokens{}, nil).WithClock(func() time.Time { return now })
	tok := signed(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()})
	if in.IsTokenExpired(tok) {
		t.Fatalf("expected valid token at fixed clock")
	}
}

func TestDecodePayload_ReadsOnlyMiddleSegment(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := base64.RawURLEncoding.EncodeToString([]byte(
		`{"exp":` + strconv.FormatInt(now.Add(time.Hour).Unix(), 10) + `,"role":"ROLE_ADMIN"}`))

	for name, tok := range map[string]string{
		"garbage header": "%%%not-base64%%%." + payload + ".sig",
		"two segments":   "eyJhbGciOiJub25lIn0." + payload,
	} {
		if IsTokenExpired(tok, now) {
			t.Fatalf("%s: expected live token", name)
		}
		if exp, ok := TokenExpiration(tok); !ok || !exp.Equal(now.Add(time.Hour)) {
			t.Fatalf("%s: expected exp one hour ahead, got %v %v", name, exp, ok)
		}
		if got := Role(tok); got != "ROLE_ADMIN" {
			t.Fatalf("%s: expected ROLE_ADMIN, got %q", name, got)
		}
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	for _, tok := range []string{"", "single", "head.", "head.%%%.sig", "head." + base64.RawURLEncoding.EncodeToString([]byte("not json"))} {
		if _, err := DecodePayload(tok); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("%q: expected ErrMalformedToken, got %v", tok, err)
		}
	}
}
