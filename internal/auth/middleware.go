package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// BearerToken extracts the token of an "Authorization: Bearer" header, or "".
func BearerToken(header string) string {
	raw := strings.TrimSpace(header)
	if !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
}

// RequireAccessToken verifies an access token and injects identity into request context.
// Used by the mock auth service; real backends authorize independently.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c.GetHeader(authorizationHeader))
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		userID := strconv.FormatInt(claims.UserID, 10)
		ctx := WithIdentity(c.Request.Context(), userID, claims.Authorities[0])
		c.Request = c.Request.WithContext(ctx)

		c.Set("userId", userID)
		c.Set("phoneNumber", claims.Subject)

		c.Next()
	}
}
