package rbac

import (
	"net/http"

	"storefront-client/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the session role matches any of the
// provided roles.
// Rules:
// - roles are compared after Normalize, so SELLER matches ROLE_SELLER
// - super admin bypasses all checks
// - no role in context is 401, a non-matching role is 403
//
// This gates local UI routes only; backends re-authorize every call.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[Normalize(r)] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.RoleFromContext(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "login required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[Normalize(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}
