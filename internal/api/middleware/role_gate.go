package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobportal/internal/auth"
)

// RequireRoles 仅放行指定角色，须挂在 AuthMiddleware 之后。
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if !identity.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "user role " + string(identity.Role) + " is not authorized to access this route",
			})
			return
		}
		c.Next()
	}
}
