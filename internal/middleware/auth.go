package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// OwnerEmailHeader identifies the project owner on mutation endpoints.
const OwnerEmailHeader = "X-Owner-Email"

// OwnerEmailKey is the gin context key holding the validated owner email.
const OwnerEmailKey = "owner_email"

const minTokenLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail applies the same loose RFC-shaped check used everywhere the
// API accepts an email.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// APIKeyAuth requires a well-formed bearer token present in the configured
// key set. Routes left outside the guarded group (health, API info) stay
// public.
func APIKeyAuth(apiKeys []string) gin.HandlerFunc {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		keys[k] = struct{}{}
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use Bearer token"})
			return
		}

		if len(token) < minTokenLength {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		if _, known := keys[token]; !known {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}

// OwnerAuth requires a syntactically valid email in the X-Owner-Email header.
// Applied to project-mutation endpoints only.
func OwnerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader(OwnerEmailHeader)
		if email == "" || !IsValidEmail(email) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Valid owner email required in X-Owner-Email header"})
			return
		}
		c.Set(OwnerEmailKey, email)
		c.Next()
	}
}
