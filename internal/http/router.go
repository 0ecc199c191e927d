package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/knowledgepathways/backend/internal/http/handlers"
	httpMW "github.com/knowledgepathways/backend/internal/http/middleware"
	"github.com/knowledgepathways/backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	UserHandler     *httpH.UserHandler
	PathwayHandler  *httpH.PathwayHandler
	ContentHandler  *httpH.ContentHandler
	ProgressHandler *httpH.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateProfile)
			protected.POST("/me/password", cfg.UserHandler.ChangePassword)
			protected.POST("/users/:id/deactivate", cfg.UserHandler.Deactivate)
		}

		// Pathways
		if cfg.PathwayHandler != nil {
			protected.POST("/pathways", cfg.PathwayHandler.Create)
			protected.GET("/pathways", cfg.PathwayHandler.List)
			protected.GET("/pathways/:id", cfg.PathwayHandler.Get)
			protected.PATCH("/pathways/:id", cfg.PathwayHandler.Update)
			protected.DELETE("/pathways/:id", cfg.PathwayHandler.Delete)
		}

		// Content
		if cfg.ContentHandler != nil {
			protected.POST("/pathways/:id/content", cfg.ContentHandler.Add)
			protected.GET("/pathways/:id/content", cfg.ContentHandler.List)
			protected.PATCH("/content/:id", cfg.ContentHandler.Update)
			protected.DELETE("/content/:id", cfg.ContentHandler.Remove)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/pathways/:id/progress", cfg.ProgressHandler.Mark)
			protected.GET("/pathways/:id/progress", cfg.ProgressHandler.Get)
			protected.POST("/pathways/:id/progress/reset", cfg.ProgressHandler.Reset)
			protected.GET("/progress", cfg.ProgressHandler.List)
		}
	}

	return r
}
