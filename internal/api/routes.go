package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonathanvouilloz/extensionReview/internal/config"
	"github.com/jonathanvouilloz/extensionReview/internal/middleware"
)

// SetupRoutes builds the gin engine with the full middleware chain and the
// route table. The chain order matters: panics are caught first, requests are
// logged, headers hardened and validated, payloads scanned and size-capped,
// then rate limiting and CORS run before any handler.
func SetupRoutes(h *Handler, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(cfg.IsProduction()))
	router.Use(middleware.AccessLog())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.HeaderValidation(cfg.IsProduction()))
	router.Use(middleware.InjectionGuard())
	router.Use(middleware.BodySizeLimit(cfg.Security.MaxBodyBytes))
	router.Use(middleware.RateLimit(limiter))
	router.Use(middleware.CORS())

	router.GET("/health", h.Health)
	router.GET("/screenshots/*key", h.ServeScreenshot)

	api := router.Group("/api")
	api.GET("", h.APIInfo)

	if cfg.Security.RequireAPIKey {
		api.Use(middleware.APIKeyAuth(cfg.Security.APIKeys))
	}

	projects := api.Group("/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("", middleware.OwnerAuth(), h.ListProjects)
		projects.GET("/:code", h.GetProject)
		projects.PUT("/:code", middleware.OwnerAuth(), h.UpdateProject)
		projects.DELETE("/:code", middleware.OwnerAuth(), h.DeleteProject)
		projects.POST("/:code/extend", middleware.OwnerAuth(), h.ExtendProject)
		projects.GET("/:code/stats", h.Stats)
	}

	comments := api.Group("/comments")
	{
		comments.POST("", h.CreateComment)
		comments.GET("/:code", h.ListComments)
		comments.GET("/comment/:id", h.GetComment)
		comments.PUT("/bulk/status", h.BulkUpdateStatus)
		comments.PUT("/:id", h.UpdateComment)
		comments.PUT("/:id/status", h.UpdateCommentStatus)
		comments.DELETE("/:id", h.DeleteComment)
	}

	return router
}
