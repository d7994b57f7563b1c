package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studiobook/internal/domain/audit"
	"studiobook/internal/pkg/jwt"
	"studiobook/internal/pkg/response"
)

const (
	ctxAdminID    = "admin_id"
	ctxAdminEmail = "admin_email"
	ctxRole       = "role"
)

// JWTAuth validates the bearer token and stores the admin identity in the context.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxAdminID, claims.AdminID)
		c.Set(ctxAdminEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func AdminID(c *gin.Context) string { return c.GetString(ctxAdminID) }

// ActorFrom builds the audit actor for the authenticated admin.
func ActorFrom(c *gin.Context) audit.Actor {
	return audit.Admin(c.GetString(ctxAdminID), c.GetString(ctxAdminEmail))
}
