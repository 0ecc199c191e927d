package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/types"
)

type ProgressService interface {
	MarkProgress(ctx context.Context, userID, pathwayID uuid.UUID, state string) (*types.ProgressRecord, error)
	ResetProgress(ctx context.Context, caller *types.User, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error)
	GetProgress(ctx context.Context, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.ProgressRecord, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	pathwayRepo  repos.PathwayRepo
	progressRepo repos.ProgressRecordRepo
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger, pathwayRepo repos.PathwayRepo, progressRepo repos.ProgressRecordRepo) ProgressService {
	serviceLog := baseLog.With("service", "ProgressService")
	return &progressService{db: db, log: serviceLog, pathwayRepo: pathwayRepo, progressRepo: progressRepo}
}

// MarkProgress upserts the single active record for (user, pathway).
// State moves forward only: not_started -> in_progress -> complete.
// Going backward needs an explicit admin reset.
func (ps *progressService) MarkProgress(ctx context.Context, userID, pathwayID uuid.UUID, state string) (*types.ProgressRecord, error) {
	if !types.ValidProgressState(state) {
		return nil, apierr.Invalid("invalid_state", fmt.Errorf("unknown progress state %q", state))
	}

	var record *types.ProgressRecord
	txErr := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pathways, err := ps.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
		if err != nil {
			return apierr.Internal(fmt.Errorf("load pathway: %w", err))
		}
		if len(pathways) == 0 {
			return apierr.NotFound("pathway_not_found", fmt.Errorf("pathway %s not found", pathwayID))
		}

		existing, gErr := ps.progressRepo.GetByUserAndPathway(ctx, tx, userID, pathwayID)
		if gErr != nil {
			return apierr.Internal(fmt.Errorf("load progress: %w", gErr))
		}

		now := time.Now().UTC()
		record = &types.ProgressRecord{
			UserID:    userID,
			PathwayID: pathwayID,
			State:     state,
		}
		if existing != nil {
			if types.ProgressRank(state) < types.ProgressRank(existing.State) {
				return apierr.Invalid("invalid_transition", fmt.Errorf("cannot move progress from %q back to %q", existing.State, state))
			}
			record.StartedAt = existing.StartedAt
			record.CompletedAt = existing.CompletedAt
		}
		if state != types.ProgressNotStarted && record.StartedAt == nil {
			record.StartedAt = &now
		}
		if state == types.ProgressComplete && record.CompletedAt == nil {
			record.CompletedAt = &now
		}

		if uErr := ps.progressRepo.Upsert(ctx, tx, record); uErr != nil {
			return apierr.Internal(fmt.Errorf("upsert progress: %w", uErr))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return record, nil
}

// ResetProgress is the only sanctioned backward transition and is
// restricted to admins.
func (ps *progressService) ResetProgress(ctx context.Context, caller *types.User, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, apierr.Forbidden("admin_only", fmt.Errorf("only admins may reset progress"))
	}

	var record *types.ProgressRecord
	txErr := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pathways, err := ps.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
		if err != nil {
			return apierr.Internal(fmt.Errorf("load pathway: %w", err))
		}
		if len(pathways) == 0 {
			return apierr.NotFound("pathway_not_found", fmt.Errorf("pathway %s not found", pathwayID))
		}

		record = &types.ProgressRecord{
			UserID:      userID,
			PathwayID:   pathwayID,
			State:       types.ProgressNotStarted,
			StartedAt:   nil,
			CompletedAt: nil,
		}
		if uErr := ps.progressRepo.Upsert(ctx, tx, record); uErr != nil {
			return apierr.Internal(fmt.Errorf("reset progress: %w", uErr))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return record, nil
}

func (ps *progressService) GetProgress(ctx context.Context, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error) {
	record, err := ps.progressRepo.GetByUserAndPathway(ctx, nil, userID, pathwayID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load progress: %w", err))
	}
	if record == nil {
		return nil, apierr.NotFound("progress_not_found", fmt.Errorf("no progress for pathway %s", pathwayID))
	}
	return record, nil
}

func (ps *progressService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.ProgressRecord, error) {
	rows, err := ps.progressRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("list progress: %w", err))
	}
	return rows, nil
}
