package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/types"
)

type CreatePathwayInput struct {
	Title             string
	Description       string
	Difficulty        string
	EstimatedDuration int
}

type UpdatePathwayInput struct {
	Title             *string
	Description       *string
	Difficulty        *string
	Status            *string
	EstimatedDuration *int
}

type PathwayService interface {
	CreatePathway(ctx context.Context, ownerID uuid.UUID, input CreatePathwayInput) (*types.Pathway, error)
	GetPathway(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error)
	ListPathways(ctx context.Context, filter repos.PathwayFilter) ([]*types.Pathway, error)
	UpdatePathway(ctx context.Context, callerID, pathwayID uuid.UUID, input UpdatePathwayInput) (*types.Pathway, error)
	DeletePathway(ctx context.Context, callerID, pathwayID uuid.UUID) error
}

type pathwayService struct {
	db           *gorm.DB
	log          *logger.Logger
	pathwayRepo  repos.PathwayRepo
	contentRepo  repos.ContentItemRepo
	progressRepo repos.ProgressRecordRepo
}

func NewPathwayService(
	db *gorm.DB,
	baseLog *logger.Logger,
	pathwayRepo repos.PathwayRepo,
	contentRepo repos.ContentItemRepo,
	progressRepo repos.ProgressRecordRepo,
) PathwayService {
	serviceLog := baseLog.With("service", "PathwayService")
	return &pathwayService{
		db:           db,
		log:          serviceLog,
		pathwayRepo:  pathwayRepo,
		contentRepo:  contentRepo,
		progressRepo: progressRepo,
	}
}

func validDifficulty(d string) bool {
	switch d {
	case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
		return true
	}
	return false
}

func validPathwayStatus(s string) bool {
	switch s {
	case types.PathwayStatusDraft, types.PathwayStatusPublished, types.PathwayStatusArchived:
		return true
	}
	return false
}

func (ps *pathwayService) CreatePathway(ctx context.Context, ownerID uuid.UUID, input CreatePathwayInput) (*types.Pathway, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apierr.Invalid("missing_title", fmt.Errorf("pathway title is required"))
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = types.DifficultyBeginner
	}
	if !validDifficulty(difficulty) {
		return nil, apierr.Invalid("invalid_difficulty", fmt.Errorf("unknown difficulty %q", difficulty))
	}
	if input.EstimatedDuration < 0 {
		return nil, apierr.Invalid("invalid_duration", fmt.Errorf("estimated duration must not be negative"))
	}

	pathway := &types.Pathway{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Title:             title,
		Description:       input.Description,
		Difficulty:        difficulty,
		Status:            types.PathwayStatusDraft,
		EstimatedDuration: input.EstimatedDuration,
	}
	if _, err := ps.pathwayRepo.Create(ctx, nil, []*types.Pathway{pathway}); err != nil {
		ps.log.Error("CreatePathway failed", "error", err, "owner_id", ownerID)
		return nil, apierr.Internal(fmt.Errorf("create pathway: %w", err))
	}
	return pathway, nil
}

func (ps *pathwayService) GetPathway(ctx context.Context, pathwayID uuid.UUID) (*types.Pathway, error) {
	return ps.loadPathway(ctx, nil, pathwayID)
}

func (ps *pathwayService) loadPathway(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (*types.Pathway, error) {
	rows, err := ps.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load pathway: %w", err))
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("pathway_not_found", fmt.Errorf("pathway %s not found", pathwayID))
	}
	return rows[0], nil
}

func (ps *pathwayService) ListPathways(ctx context.Context, filter repos.PathwayFilter) ([]*types.Pathway, error) {
	if filter.Status != "" && !validPathwayStatus(filter.Status) {
		return nil, apierr.Invalid("invalid_status", fmt.Errorf("unknown status %q", filter.Status))
	}
	rows, err := ps.pathwayRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("list pathways: %w", err))
	}
	return rows, nil
}

func (ps *pathwayService) UpdatePathway(ctx context.Context, callerID, pathwayID uuid.UUID, input UpdatePathwayInput) (*types.Pathway, error) {
	pathway, err := ps.loadPathway(ctx, nil, pathwayID)
	if err != nil {
		return nil, err
	}
	if pathway.OwnerID != callerID {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("pathway %s is not owned by caller", pathwayID))
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apierr.Invalid("missing_title", fmt.Errorf("pathway title is required"))
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Difficulty != nil {
		if !validDifficulty(*input.Difficulty) {
			return nil, apierr.Invalid("invalid_difficulty", fmt.Errorf("unknown difficulty %q", *input.Difficulty))
		}
		updates["difficulty"] = *input.Difficulty
	}
	if input.Status != nil {
		if !validPathwayStatus(*input.Status) {
			return nil, apierr.Invalid("invalid_status", fmt.Errorf("unknown status %q", *input.Status))
		}
		updates["status"] = *input.Status
	}
	if input.EstimatedDuration != nil {
		if *input.EstimatedDuration < 0 {
			return nil, apierr.Invalid("invalid_duration", fmt.Errorf("estimated duration must not be negative"))
		}
		updates["estimated_duration"] = *input.EstimatedDuration
	}
	if len(updates) == 0 {
		return pathway, nil
	}

	if err := ps.pathwayRepo.UpdateFields(ctx, nil, pathwayID, updates); err != nil {
		return nil, apierr.Internal(fmt.Errorf("update pathway: %w", err))
	}
	return ps.loadPathway(ctx, nil, pathwayID)
}

// DeletePathway soft-deletes the pathway and cascades to its content
// items and progress records in one transaction.
func (ps *pathwayService) DeletePathway(ctx context.Context, callerID, pathwayID uuid.UUID) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pathway, err := ps.loadPathway(ctx, tx, pathwayID)
		if err != nil {
			return err
		}
		if pathway.OwnerID != callerID {
			return apierr.Forbidden("not_owner", fmt.Errorf("pathway %s is not owned by caller", pathwayID))
		}
		if err := ps.contentRepo.SoftDeleteByPathwayIDs(ctx, tx, []uuid.UUID{pathwayID}); err != nil {
			return apierr.Internal(fmt.Errorf("cascade content delete: %w", err))
		}
		if err := ps.progressRepo.SoftDeleteByPathwayIDs(ctx, tx, []uuid.UUID{pathwayID}); err != nil {
			return apierr.Internal(fmt.Errorf("cascade progress delete: %w", err))
		}
		if err := ps.pathwayRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{pathwayID}); err != nil {
			return apierr.Internal(fmt.Errorf("delete pathway: %w", err))
		}
		return nil
	})
}
