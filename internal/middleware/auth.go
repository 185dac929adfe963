package middleware

import (
	"net/http"
	"strings"

	"crown_back_end/internal/auth"
	"crown_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// Gin context keys set from a valid session token.
const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
	KeyRole   = "role"
)

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(KeyUserID, claims.Subject)
	c.Set(KeyEmail, claims.Email)
	c.Set(KeyRole, claims.Role)
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(KeyRole) == models.RoleAdmin
}
