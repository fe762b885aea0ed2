// internal/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"tesoreria/internal/auth"

	"github.com/gin-gonic/gin"
)

// TreasurerIDKey is the gin context key holding the authenticated treasurer.
const TreasurerIDKey = "treasurer_id"

type AuthMiddleware struct {
	tokenService *auth.TokenService
}

func NewAuthMiddleware(ts *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: ts}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}

		treasurerID, err := m.tokenService.ParseToken(tokenStr)
		if err != nil {
			slog.Debug("token rejected", "error", err)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(TreasurerIDKey, treasurerID)
		c.Next()
	}
}

// TreasurerID returns the id stored by RequireAuth, or "" outside it.
func TreasurerID(c *gin.Context) string {
	return c.GetString(TreasurerIDKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": "unauthorized"})
}
