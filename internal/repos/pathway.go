package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/types"
)

// PathwayFilter narrows List. Zero values mean "no constraint"; Limit 0
// falls back to a server-side default so a listing is always bounded.
type PathwayFilter struct {
	OwnerID *uuid.UUID
	Status  string
	Limit   int
	Offset  int
}

const defaultPathwayListLimit = 50

type PathwayRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Pathway) ([]*types.Pathway, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pathway, error)
	List(ctx context.Context, tx *gorm.DB, filter PathwayFilter) ([]*types.Pathway, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type pathwayRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathwayRepo(db *gorm.DB, baseLog *logger.Logger) PathwayRepo {
	repoLog := baseLog.With("repo", "PathwayRepo")
	return &pathwayRepo{db: db, log: repoLog}
}

func (r *pathwayRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Pathway) ([]*types.Pathway, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Pathway{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pathwayRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pathway, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Pathway
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

func (r *pathwayRepo) List(ctx context.Context, tx *gorm.DB, filter PathwayFilter) ([]*types.Pathway, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPathwayListLimit
	}

	q := transaction.WithContext(ctx).Model(&types.Pathway{})
	if filter.OwnerID != nil && *filter.OwnerID != uuid.Nil {
		q = q.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var results []*types.Pathway
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathwayRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Pathway{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return nil
}

func (r *pathwayRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Pathway{}).Error; err != nil {
		return err
	}
	return nil
}
