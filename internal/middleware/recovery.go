// Package middleware implements the request defense chain applied to every
// inbound request, in a fixed order: error boundary, access log, security
// headers, header validation, injection screening, body size limit, rate
// limiting, CORS, then authentication where a route requires it.
package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery is the outermost error boundary. Any panic in later middleware or
// the route handler becomes a generic 500; the panic detail is echoed to the
// client only outside production mode.
func Recovery(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[RECOVERY] panic handling %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				body := gin.H{"error": "Internal server error"}
				if !production {
					body["details"] = fmt.Sprintf("%v", r)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
