package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// The two pattern families below are independent, testable predicates. The
// middleware never echoes matched input back to the client.

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION)\b`),
	regexp.MustCompile(`(?i)\b(OR|AND)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)\b(OR|AND)\s+['"]?\w+['"]?\s*=\s*['"]?\w+['"]?`),
	regexp.MustCompile(`(;|\|\||&&)`),
	regexp.MustCompile(`(-{2}|/\*|\*/)`),
}

var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?is)<iframe\b.*?</iframe>`),
}

// ContainsSQLInjection reports whether the input matches any SQL keyword,
// tautology, separator or comment-marker pattern.
func ContainsSQLInjection(input string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

// ContainsScriptInjection reports whether the input matches any script or
// markup injection pattern.
func ContainsScriptInjection(input string) bool {
	for _, p := range scriptPatterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

// imageDataURL marks base64 image payloads, which always carry a ';' and are
// validated by the screenshot pipeline instead of the pattern scan.
var imageDataURL = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// containsSuspiciousValue walks a decoded JSON value and applies both pattern
// families to every string leaf. Numbers, booleans and nulls pass untouched.
func containsSuspiciousValue(v interface{}) bool {
	switch val := v.(type) {
	case string:
		if imageDataURL.MatchString(val) {
			return false
		}
		return ContainsSQLInjection(val) || ContainsScriptInjection(val)
	case []interface{}:
		for _, item := range val {
			if containsSuspiciousValue(item) {
				return true
			}
		}
	case map[string]interface{}:
		for _, item := range val {
			if containsSuspiciousValue(item) {
				return true
			}
		}
	}
	return false
}

// InjectionGuard screens every query parameter value and, for POST/PUT, every
// string leaf of the JSON body. Body parse failures are swallowed here and
// left to the downstream JSON binding to report.
func InjectionGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, values := range c.Request.URL.Query() {
			for _, v := range values {
				if ContainsSQLInjection(v) || ContainsScriptInjection(v) {
					c.AbortWithStatusJSON(http.StatusBadRequest,
						gin.H{"error": "Suspicious content detected in query parameters"})
					return
				}
			}
		}

		method := c.Request.Method
		if (method == http.MethodPost || method == http.MethodPut) && c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			if err == nil {
				// Hand the body back for the handler's own binding.
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))

				var decoded interface{}
				if json.Unmarshal(raw, &decoded) == nil && containsSuspiciousValue(decoded) {
					c.AbortWithStatusJSON(http.StatusBadRequest,
						gin.H{"error": "Suspicious content detected in request body"})
					return
				}
			}
		}

		c.Next()
	}
}
