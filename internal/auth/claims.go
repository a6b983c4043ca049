package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the token shape issued by the storefront auth service.
// Subject carries the phone number; access tokens carry the granted authorities.
// Clients never verify these; they only decode them for UI gating.
type Claims struct {
	jwt.RegisteredClaims

	UserID      int64     `json:"userId"`
	Authorities []string  `json:"authorities,omitempty"`
	TokenType   TokenType `json:"token_type"`
}

// Claim names read from decoded payloads.
const (
	ClaimExpiry      = "exp"
	ClaimRole        = "role"
	ClaimAuthorities = "authorities"
	ClaimAuthority   = "authority"
	ClaimUserID      = "userId"
)
