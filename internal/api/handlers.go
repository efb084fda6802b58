// Package api exposes the HTTP surface of the feedback service: REST
// handlers, the hardened middleware chain and the route table.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonathanvouilloz/extensionReview/internal/code"
	"github.com/jonathanvouilloz/extensionReview/internal/config"
	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
	"github.com/jonathanvouilloz/extensionReview/internal/middleware"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

// Handler regroups the HTTP handlers and their dependencies.
type Handler struct {
	feedback *services.FeedbackService
	store    storage.ObjectStore
	cfg      *config.Config
}

// NewHandler creates and returns a new instance of Handler.
func NewHandler(feedback *services.FeedbackService, store storage.ObjectStore, cfg *config.Config) *Handler {
	return &Handler{feedback: feedback, store: store, cfg: cfg}
}

// respondError maps service errors onto the API's status taxonomy. Internal
// errors only carry detail outside production.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrInvalidProjectCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project code format"})
	case errors.Is(err, apperrors.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, apperrors.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
	case errors.Is(err, apperrors.ErrNoFieldsToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
	case errors.Is(err, apperrors.ErrTooManyIDs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many comment ids (maximum 100)"})
	case errors.Is(err, apperrors.ErrCommentLimitReached):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment limit reached for this project"})
	case errors.Is(err, apperrors.ErrInvalidScreenshot):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid screenshot format or size"})
	case errors.Is(err, apperrors.ErrCodeGenerationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to allocate a project code"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verr.Details})
	default:
		if h.cfg.IsProduction() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}

func bindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": []string{err.Error()}})
}

// Health répond au health check.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// APIInfo documents the available endpoints at the API root.
func (h *Handler) APIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Feedback API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"projects":    "/api/projects",
			"comments":    "/api/comments",
			"screenshots": "/screenshots/{key}",
			"health":      "/health",
		},
	})
}

// CreateProject handles POST /api/projects.
func (h *Handler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	summary, err := h.feedback.Projects.Create(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// GetProject handles GET /api/projects/:code. It returns the public summary
// of a live project; expired and missing codes are indistinguishable.
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.feedback.Projects.GetByCode(c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project.Summary())
}

// ListProjects handles GET /api/projects, scoped to the authenticated owner.
func (h *Handler) ListProjects(c *gin.Context) {
	owner := c.GetString(middleware.OwnerEmailKey)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	res, err := h.feedback.Projects.ListByOwner(owner, page, perPage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateProject handles PUT /api/projects/:code.
func (h *Handler) UpdateProject(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.feedback.Projects.Update(c.Param("code"), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteProject handles DELETE /api/projects/:code, cascading over the
// project's comments and screenshots.
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.feedback.DeleteProject(c.Param("code")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type extendRequest struct {
	Days int `json:"days" binding:"omitempty,min=1,max=365"`
}

// ExtendProject handles POST /api/projects/:code/extend. An absent body or
// zero day count defaults to 30. Extending a lapsed project reactivates it.
func (h *Handler) ExtendProject(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindingError(c, err)
		return
	}

	if err := h.feedback.Projects.ExtendExpiration(c.Param("code"), req.Days); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project expiration extended"})
}

// Stats handles GET /api/projects/:code/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.feedback.Stats(c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateComment handles POST /api/comments, the submission endpoint used by
// the browser extension.
func (h *Handler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	id, err := h.feedback.SubmitComment(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "status": "success"})
}

// ListComments handles GET /api/comments/:code with filter, sort and
// pagination query parameters. Structurally invalid codes are rejected here;
// the store below answers unknown (or expired) codes with an empty page.
func (h *Handler) ListComments(c *gin.Context) {
	normalized := code.Normalize(c.Param("code"))
	if !code.IsValidFormat(normalized) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project code format"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	filter := models.CommentFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.DateTo = &t
		}
	}

	res, err := h.feedback.Comments.ListByProject(normalized, filter, models.Pagination{
		Page:    page,
		PerPage: perPage,
		Sort:    c.Query("sort"),
		Order:   c.Query("order"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetComment handles GET /api/comments/comment/:id.
func (h *Handler) GetComment(c *gin.Context) {
	comment, err := h.feedback.Comments.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment.Response())
}

// UpdateComment handles PUT /api/comments/:id.
func (h *Handler) UpdateComment(c *gin.Context) {
	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.feedback.Comments.Update(c.Param("id"), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=new in_progress resolved"`
}

// UpdateCommentStatus handles PUT /api/comments/:id/status.
func (h *Handler) UpdateCommentStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.feedback.Comments.UpdateStatus(c.Param("id"), req.Status); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteComment handles DELETE /api/comments/:id.
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.feedback.Comments.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BulkUpdateStatus handles PUT /api/comments/bulk/status.
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	updated, err := h.feedback.Comments.BulkUpdateStatus(req.CommentIDs, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated, "total": len(req.CommentIDs)})
}

// ServeScreenshot handles GET /screenshots/*key, streaming a stored blob
// back with long-lived caching headers.
func (h *Handler) ServeScreenshot(c *gin.Context) {
	key := "screenshots" + c.Param("key")
	if strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid screenshot key"})
		return
	}

	data, info, err := h.store.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Screenshot not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "image/webp"
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Disposition", "inline")
	c.Data(http.StatusOK, contentType, data)
}
