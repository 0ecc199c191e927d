package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/types"
)

type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error)
	GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.ContentItem, error)
	CountByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (int64, error)
	ShiftPositions(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, fromPosition, delta int) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	SoftDeleteByPathwayIDs(ctx context.Context, tx *gorm.DB, pathwayIDs []uuid.UUID) error
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	repoLog := baseLog.With("repo", "ContentItemRepo")
	return &contentItemRepo{db: db, log: repoLog}
}

func (r *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ContentItem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentItem
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentItemRepo) GetByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ContentItem
	if pathwayID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("pathway_id = ?", pathwayID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentItemRepo) CountByPathwayID(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("pathway_id = ?", pathwayID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ShiftPositions moves every live item at or above fromPosition by
// delta. Callers run this inside the same transaction as the insert or
// removal that made the shift necessary.
func (r *contentItemRepo) ShiftPositions(ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, fromPosition, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if pathwayID == uuid.Nil || delta == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("pathway_id = ? AND position >= ?", pathwayID, fromPosition).
		UpdateColumn("position", gorm.Expr("position + ?", delta)).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentItemRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentItemRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.ContentItem{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *contentItemRepo) SoftDeleteByPathwayIDs(ctx context.Context, tx *gorm.DB, pathwayIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(pathwayIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("pathway_id IN ?", pathwayIDs).
		Delete(&types.ContentItem{}).Error; err != nil {
		return err
	}
	return nil
}
