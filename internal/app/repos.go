package app

import (
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/repos"
)

type Repos struct {
	User           repos.UserRepo
	UserToken      repos.UserTokenRepo
	Pathway        repos.PathwayRepo
	ContentItem    repos.ContentItemRepo
	ProgressRecord repos.ProgressRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		UserToken:      repos.NewUserTokenRepo(db, log),
		Pathway:        repos.NewPathwayRepo(db, log),
		ContentItem:    repos.NewContentItemRepo(db, log),
		ProgressRecord: repos.NewProgressRecordRepo(db, log),
	}
}
