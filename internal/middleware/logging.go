package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientIP resolves the caller address from trusted proxy headers, falling
// back to "unknown". The CDN in front of the API sets CF-Connecting-IP;
// X-Forwarded-For covers other reverse proxies.
func ClientIP(c *gin.Context) string {
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	return "unknown"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AccessLog records method, path, truncated client IP and user agent before
// handling, and the status plus elapsed time after.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		log.Printf("[ACCESS] --> %s %s ip=%s ua=%q",
			method, path, truncate(ClientIP(c), 15), truncate(c.GetHeader("User-Agent"), 50))

		c.Next()

		log.Printf("[ACCESS] <-- %s %s status=%d elapsed=%s",
			method, path, c.Writer.Status(), time.Since(start))
	}
}
