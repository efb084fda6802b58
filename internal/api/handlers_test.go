package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/internal/code"
	"github.com/jonathanvouilloz/extensionReview/internal/config"
	"github.com/jonathanvouilloz/extensionReview/internal/middleware"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/notify"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Security.RateLimitMax = 1000
	cfg.Security.RateLimitWindowS = 60
	cfg.Security.MaxBodyBytes = 5 * 1024 * 1024
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.Comment{}))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	projects := services.NewProjectService(projectRepo, code.NewGenerator())
	comments := services.NewCommentService(commentRepo, projectRepo, store)
	feedback := services.NewFeedbackService(projects, comments, commentRepo, store, notify.NewWebhookNotifier())

	handler := NewHandler(feedback, store, cfg)
	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.RateLimitWindow())
	return SetupRoutes(handler, limiter, cfg)
}

func doJSON(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestProject(t *testing.T, router *gin.Engine) models.ProjectSummary {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/projects", gin.H{
		"name":        "Demo",
		"owner_email": "owner@example.com",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var summary models.ProjectSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	return summary
}

func tinyPNGDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t, testConfig())

	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	// The hardened headers ride on every response.
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestAPIInfo(t *testing.T) {
	router := newTestServer(t, testConfig())

	w := doJSON(router, http.MethodGet, "/api", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Feedback API")
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	router := newTestServer(t, testConfig())
	summary := createTestProject(t, router)
	owner := map[string]string{"X-Owner-Email": "owner@example.com"}

	t.Run("created code is retrievable", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/projects/"+summary.Code, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), summary.Code)
		// Owner email never leaves the API.
		assert.NotContains(t, w.Body.String(), "owner@example.com")
	})

	t.Run("malformed code is a 400, not a 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/projects/notacode", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown code is a 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/projects/ZZZ-ZZZ-ZZ9", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update requires owner email header", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/projects/"+summary.Code,
			gin.H{"name": "Renamed"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doJSON(router, http.MethodPut, "/api/projects/"+summary.Code,
			gin.H{"name": "Renamed"}, owner)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/projects/"+summary.Code, gin.H{}, owner)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No fields to update")
	})

	t.Run("extend without body defaults", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/projects/"+summary.Code+"/extend", nil, owner)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("owner listing", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/projects", nil, owner)
		assert.Equal(t, http.StatusOK, w.Code)

		var res models.ProjectListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("delete cascades and repeats as 404", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/projects/"+summary.Code, nil, owner)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodDelete, "/api/projects/"+summary.Code, nil, owner)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProjectValidation(t *testing.T) {
	router := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"owner_email": "a@b.com"}},
		{"name too short", gin.H{"name": "x", "owner_email": "a@b.com"}},
		{"bad email", gin.H{"name": "Demo", "owner_email": "nope"}},
		{"max comments out of range", gin.H{"name": "Demo", "owner_email": "a@b.com", "max_comments": 5000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/projects", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Validation failed")
		})
	}
}

func TestCommentSubmissionOverHTTP(t *testing.T) {
	router := newTestServer(t, testConfig())
	summary := createTestProject(t, router)

	t.Run("submit and list", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com/page",
			"text":         "the sidebar is cut off",
			"priority":     "high",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"success"`)

		w = doJSON(router, http.MethodGet, "/api/comments/"+summary.Code, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var res models.CommentListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Equal(t, int64(1), res.Total)
		assert.Equal(t, "high", res.Comments[0].Priority)
		assert.Equal(t, summary.Code, res.Project.Code)
	})

	t.Run("sloppy code in submission accepted", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": " " + summary.Code + " ",
			"url":          "https://example.com",
			"text":         "still works",
		}, nil)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("unknown project rejected", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": "ZZZ-ZZZ-ZZ9",
			"url":          "https://example.com",
			"text":         "lost",
		}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed code in listing is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/comments/notacode", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid project code format")
	})

	t.Run("malformed screen resolution rejected", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         "blurry everywhere",
			"metadata":     gin.H{"screen_resolution": "not-a-resolution"},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Screen resolution")

		w = doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         "blurry everywhere",
			"metadata":     gin.H{"screen_resolution": "1920x1080"},
		}, nil)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("text over limit rejected", func(t *testing.T) {
		long := make([]byte, 2001)
		for i := range long {
			long[i] = 'a'
		}
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         string(long),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("screenshot roundtrip through storage", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         "see capture",
			"screenshot":   tinyPNGDataURL(t),
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		w = doJSON(router, http.MethodGet, "/api/comments/comment/"+created.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var comment models.CommentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
		require.NotEmpty(t, comment.ScreenshotKey)

		w = doJSON(router, http.MethodGet, "/"+comment.ScreenshotKey, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
	})

	t.Run("missing screenshot is a 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/screenshots/nope.webp", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCommentManagementOverHTTP(t *testing.T) {
	router := newTestServer(t, testConfig())
	summary := createTestProject(t, router)

	submit := func(text string) string {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         text,
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		return created.ID
	}

	first := submit("first")
	second := submit("second")

	t.Run("status update", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/comments/"+first+"/status",
			gin.H{"status": "resolved"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodPut, "/api/comments/"+first+"/status",
			gin.H{"status": "bogus"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/comments/"+second,
			gin.H{"priority": "low"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bulk update caps at 100 ids", func(t *testing.T) {
		ids := make([]string, models.MaxBulkStatusIDs+1)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%d", i)
		}
		w := doJSON(router, http.MethodPut, "/api/comments/bulk/status",
			gin.H{"commentIds": ids, "status": "resolved"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Too many comment ids")
	})

	t.Run("bulk update counts matched rows", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/comments/bulk/status",
			gin.H{"commentIds": []string{first, second, "missing"}, "status": "in_progress"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			Success bool  `json:"success"`
			Updated int64 `json:"updated"`
			Total   int   `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, int64(2), res.Updated)
		assert.Equal(t, 3, res.Total)
	})

	t.Run("delete then 404", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/comments/"+first, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)

		w = doJSON(router, http.MethodDelete, "/api/comments/"+first, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInjectionGuardOverHTTP(t *testing.T) {
	router := newTestServer(t, testConfig())
	summary := createTestProject(t, router)

	t.Run("script in comment text blocked before the handler", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         "<script>alert(1)</script>",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Suspicious content")
		// The response never echoes the payload back.
		assert.NotContains(t, w.Body.String(), "<script>")
	})

	t.Run("sql keywords in query blocked", func(t *testing.T) {
		w := doJSON(router, http.MethodGet,
			"/api/comments/"+summary.Code+"?search=1%27%20OR%20%271%27=%271", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("plain text passes", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
			"project_code": summary.Code,
			"url":          "https://example.com",
			"text":         "the dropdown arrow renders upside down on small screens",
		}, nil)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

func TestRateLimitOverHTTP(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitMax = 3
	router := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		w := doJSON(router, http.MethodGet, "/health", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client IP has its own window.
	w = doJSON(router, http.MethodGet, "/health", nil,
		map[string]string{"CF-Connecting-IP": "203.0.113.7"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyGate(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"super-secret-key"}
	router := newTestServer(t, cfg)

	t.Run("health stays public", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("api routes gated", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/projects", gin.H{
			"name": "Demo", "owner_email": "a@b.com",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doJSON(router, http.MethodPost, "/api/projects", gin.H{
			"name": "Demo", "owner_email": "a@b.com",
		}, map[string]string{"Authorization": "Bearer super-secret-key"})
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

func TestCORSPreflight(t *testing.T) {
	router := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://client.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodySizeLimitOverHTTP(t *testing.T) {
	cfg := testConfig()
	cfg.Security.MaxBodyBytes = 256
	router := newTestServer(t, cfg)

	big := make([]byte, 512)
	for i := range big {
		big[i] = 'a'
	}
	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExpiredProjectDisappearsOverHTTP(t *testing.T) {
	cfg := testConfig()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.Comment{}))
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	projects := services.NewProjectService(projectRepo, code.NewGenerator())
	comments := services.NewCommentService(commentRepo, projectRepo, store)
	feedback := services.NewFeedbackService(projects, comments, commentRepo, store, notify.NewWebhookNotifier())
	router := SetupRoutes(NewHandler(feedback, store, cfg),
		middleware.NewRateLimiter(1000, time.Minute), cfg)

	summary := createTestProject(t, router)
	require.NoError(t, db.Model(&models.Project{}).
		Where("code = ?", summary.Code).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	w := doJSON(router, http.MethodGet, "/api/projects/"+summary.Code, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/comments", gin.H{
		"project_code": summary.Code,
		"url":          "https://example.com",
		"text":         "too late",
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
