package app

import (
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Pathway  services.PathwayService
	Content  services.ContentService
	Progress services.ProgressService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:     services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:     services.NewUserService(db, log, r.User, r.UserToken),
		Pathway:  services.NewPathwayService(db, log, r.Pathway, r.ContentItem, r.ProgressRecord),
		Content:  services.NewContentService(db, log, r.Pathway, r.ContentItem),
		Progress: services.NewProgressService(db, log, r.Pathway, r.ProgressRecord),
	}
}
