package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestContainsSQLInjection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"select keyword", "SELECT * FROM projects", true},
		{"lowercase union", "1 union all", true},
		{"drop table", "DROP TABLE comments", true},
		{"tautology", "x OR 1=1", true},
		{"quoted tautology", "foo OR 'a'='a'", true},
		{"statement separator", "a; b", true},
		{"double pipe", "a || b", true},
		{"comment marker", "value -- trailing", true},
		{"block comment", "a /* hidden */ b", true},
		{"plain sentence", "the button is misaligned", false},
		{"word containing keyword letters", "my selection of fonts", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsSQLInjection(tt.input))
		})
	}
}

func TestContainsScriptInjection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"script tag", "<script>alert(1)</script>", true},
		{"script tag with attrs", `<script src="x.js">a</script>`, true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"vbscript scheme", "VBScript:msgbox", true},
		{"inline handler", `<img onerror=alert(1)>`, true},
		{"iframe", "<iframe src='x'>y</iframe>", true},
		{"angle brackets alone", "a < b > c", false},
		{"plain text", "please fix the header", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsScriptInjection(tt.input))
		})
	}
}

func guardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(InjectionGuard())
	handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/echo", handler)
	r.POST("/echo", handler)
	return r
}

func TestInjectionGuardQueryParams(t *testing.T) {
	r := guardedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/echo?search=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "alert", "must never echo the offending value")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/echo?search=misaligned+button", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInjectionGuardBodyLeaves(t *testing.T) {
	r := guardedRouter()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"clean body", `{"text":"the footer overlaps"}`, http.StatusOK},
		{"script in top-level string", `{"text":"<script>alert(1)</script>"}`, http.StatusBadRequest},
		{"sql in nested object", `{"meta":{"note":"1 OR 1=1"}}`, http.StatusBadRequest},
		{"script deep in array", `{"items":[{"v":"ok"},{"v":"javascript:x()"}]}`, http.StatusBadRequest},
		{"numbers and booleans pass", `{"x":1,"y":true,"z":null}`, http.StatusOK},
		{"image data url passes despite semicolon", `{"screenshot":"data:image/png;base64,iVBORw0KGgo="}`, http.StatusOK},
		{"parse failure deferred downstream", `{not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestInjectionGuardPreservesBodyForHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(InjectionGuard())
	r.POST("/bind", func(c *gin.Context) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": payload.Text})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")
}
