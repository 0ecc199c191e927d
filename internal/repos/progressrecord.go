package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/types"
)

type ProgressRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProgressRecord, error)
	GetByUserAndPathway(ctx context.Context, tx *gorm.DB, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error
	SoftDeleteByPathwayIDs(ctx context.Context, tx *gorm.DB, pathwayIDs []uuid.UUID) error
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	repoLog := baseLog.With("repo", "ProgressRecordRepo")
	return &progressRecordRepo{db: db, log: repoLog}
}

func (r *progressRecordRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ProgressRecord{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRecordRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProgressRecord
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRecordRepo) GetByUserAndPathway(ctx context.Context, tx *gorm.DB, userID, pathwayID uuid.UUID) (*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || pathwayID == uuid.Nil {
		return nil, nil
	}

	var results []*types.ProgressRecord
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND pathway_id = ?", userID, pathwayID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Upsert keeps the single active record per (user_id, pathway_id) pair.
func (r *progressRecordRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND pathway_id = ?", row.UserID, row.PathwayID).
		Assign(map[string]interface{}{
			"state":        row.State,
			"started_at":   row.StartedAt,
			"completed_at": row.CompletedAt,
		}).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *progressRecordRepo) SoftDeleteByPathwayIDs(ctx context.Context, tx *gorm.DB, pathwayIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(pathwayIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("pathway_id IN ?", pathwayIDs).
		Delete(&types.ProgressRecord{}).Error; err != nil {
		return err
	}
	return nil
}
