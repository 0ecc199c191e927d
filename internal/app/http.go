package app

import (
	"github.com/gin-gonic/gin"

	"github.com/knowledgepathways/backend/internal/http"
	httpH "github.com/knowledgepathways/backend/internal/http/handlers"
	httpMW "github.com/knowledgepathways/backend/internal/http/middleware"
	"github.com/knowledgepathways/backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Pathway  *httpH.PathwayHandler
	Content  *httpH.ContentHandler
	Progress *httpH.ProgressHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(services.Auth),
		User:     httpH.NewUserHandler(services.User),
		Pathway:  httpH.NewPathwayHandler(services.Pathway),
		Content:  httpH.NewContentHandler(services.Content),
		Progress: httpH.NewProgressHandler(services.Progress),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		UserHandler:     handlers.User,
		PathwayHandler:  handlers.Pathway,
		ContentHandler:  handlers.Content,
		ProgressHandler: handlers.Progress,
	})
}
