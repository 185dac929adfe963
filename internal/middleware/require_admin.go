package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after AuthRequired.
func RequireAdmin(c *gin.Context) {
	if !IsAdmin(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.Next()
}
