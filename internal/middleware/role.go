package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiobook/internal/pkg/response"
)

const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// RequireRole ensures that the authenticated admin has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Role not found in token")
			return
		}

		for _, r := range allowed {
			if r == role {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, response.CodeForbidden, "Access denied: insufficient permissions")
	}
}

// AdminOnly admits both admin roles.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(RoleAdmin, RoleSuperAdmin)
}
