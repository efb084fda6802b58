package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS answers the browser extension's cross-origin requests. The origin is
// deliberately permissive: project codes, not origins, gate access to data.
// OPTIONS preflights short-circuit with 204 and never reach a handler.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Owner-Email")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
