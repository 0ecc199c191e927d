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

type AddContentInput struct {
	Title       string
	Body        string
	ContentType string
	URL         string
	// Position is the zero-based slot to insert at. -1 appends.
	Position int
}

type UpdateContentInput struct {
	Title       *string
	Body        *string
	ContentType *string
	URL         *string
}

type ContentService interface {
	AddContent(ctx context.Context, callerID, pathwayID uuid.UUID, input AddContentInput) (*types.ContentItem, error)
	ListContent(ctx context.Context, pathwayID uuid.UUID) ([]*types.ContentItem, error)
	UpdateContent(ctx context.Context, callerID, contentID uuid.UUID, input UpdateContentInput) (*types.ContentItem, error)
	RemoveContent(ctx context.Context, callerID, contentID uuid.UUID) error
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	pathwayRepo repos.PathwayRepo
	contentRepo repos.ContentItemRepo
}

func NewContentService(db *gorm.DB, baseLog *logger.Logger, pathwayRepo repos.PathwayRepo, contentRepo repos.ContentItemRepo) ContentService {
	serviceLog := baseLog.With("service", "ContentService")
	return &contentService{db: db, log: serviceLog, pathwayRepo: pathwayRepo, contentRepo: contentRepo}
}

func validContentType(t string) bool {
	switch t {
	case types.ContentTypeArticle, types.ContentTypeVideo, types.ContentTypeExercise, types.ContentTypeQuiz, types.ContentTypeLink:
		return true
	}
	return false
}

// AddContent inserts at the requested position and shifts trailing
// items so positions stay contiguous. Position may be anywhere from 0
// to the current item count (an append); -1 also appends.
func (cs *contentService) AddContent(ctx context.Context, callerID, pathwayID uuid.UUID, input AddContentInput) (*types.ContentItem, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apierr.Invalid("missing_title", fmt.Errorf("content title is required"))
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = types.ContentTypeArticle
	}
	if !validContentType(contentType) {
		return nil, apierr.Invalid("invalid_content_type", fmt.Errorf("unknown content type %q", contentType))
	}

	var item *types.ContentItem
	txErr := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pathway, err := cs.loadOwnedPathway(ctx, tx, callerID, pathwayID)
		if err != nil {
			return err
		}

		count, cErr := cs.contentRepo.CountByPathwayID(ctx, tx, pathway.ID)
		if cErr != nil {
			return apierr.Internal(fmt.Errorf("count content: %w", cErr))
		}

		position := input.Position
		if position == -1 {
			position = int(count)
		}
		if position < 0 || position > int(count) {
			return apierr.Invalid("invalid_position", fmt.Errorf("position %d out of bounds [0, %d]", input.Position, count))
		}

		if position < int(count) {
			if sErr := cs.contentRepo.ShiftPositions(ctx, tx, pathway.ID, position, 1); sErr != nil {
				return apierr.Internal(fmt.Errorf("shift positions: %w", sErr))
			}
		}

		item = &types.ContentItem{
			ID:          uuid.New(),
			PathwayID:   pathway.ID,
			Position:    position,
			Title:       title,
			Body:        input.Body,
			ContentType: contentType,
			URL:         input.URL,
		}
		if _, crErr := cs.contentRepo.Create(ctx, tx, []*types.ContentItem{item}); crErr != nil {
			return apierr.Internal(fmt.Errorf("create content item: %w", crErr))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return item, nil
}

func (cs *contentService) ListContent(ctx context.Context, pathwayID uuid.UUID) ([]*types.ContentItem, error) {
	rows, err := cs.pathwayRepo.GetByIDs(ctx, nil, []uuid.UUID{pathwayID})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load pathway: %w", err))
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("pathway_not_found", fmt.Errorf("pathway %s not found", pathwayID))
	}
	items, err := cs.contentRepo.GetByPathwayID(ctx, nil, pathwayID)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("list content: %w", err))
	}
	return items, nil
}

func (cs *contentService) UpdateContent(ctx context.Context, callerID, contentID uuid.UUID, input UpdateContentInput) (*types.ContentItem, error) {
	var updated *types.ContentItem
	txErr := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := cs.loadOwnedContent(ctx, tx, callerID, contentID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return apierr.Invalid("missing_title", fmt.Errorf("content title is required"))
			}
			updates["title"] = title
		}
		if input.Body != nil {
			updates["body"] = *input.Body
		}
		if input.ContentType != nil {
			if !validContentType(*input.ContentType) {
				return apierr.Invalid("invalid_content_type", fmt.Errorf("unknown content type %q", *input.ContentType))
			}
			updates["content_type"] = *input.ContentType
		}
		if input.URL != nil {
			updates["url"] = *input.URL
		}
		if len(updates) > 0 {
			if upErr := cs.contentRepo.UpdateFields(ctx, tx, item.ID, updates); upErr != nil {
				return apierr.Internal(fmt.Errorf("update content: %w", upErr))
			}
		}

		rows, gErr := cs.contentRepo.GetByIDs(ctx, tx, []uuid.UUID{item.ID})
		if gErr != nil || len(rows) == 0 {
			return apierr.Internal(fmt.Errorf("reload content: %w", gErr))
		}
		updated = rows[0]
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// RemoveContent soft-deletes the item and closes the position gap so
// the pathway's sequence stays contiguous.
func (cs *contentService) RemoveContent(ctx context.Context, callerID, contentID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := cs.loadOwnedContent(ctx, tx, callerID, contentID)
		if err != nil {
			return err
		}
		if dErr := cs.contentRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{item.ID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("delete content: %w", dErr))
		}
		if sErr := cs.contentRepo.ShiftPositions(ctx, tx, item.PathwayID, item.Position+1, -1); sErr != nil {
			return apierr.Internal(fmt.Errorf("close position gap: %w", sErr))
		}
		return nil
	})
}

func (cs *contentService) loadOwnedPathway(ctx context.Context, tx *gorm.DB, callerID, pathwayID uuid.UUID) (*types.Pathway, error) {
	rows, err := cs.pathwayRepo.GetByIDs(ctx, tx, []uuid.UUID{pathwayID})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load pathway: %w", err))
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("pathway_not_found", fmt.Errorf("pathway %s not found", pathwayID))
	}
	if rows[0].OwnerID != callerID {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("pathway %s is not owned by caller", pathwayID))
	}
	return rows[0], nil
}

func (cs *contentService) loadOwnedContent(ctx context.Context, tx *gorm.DB, callerID, contentID uuid.UUID) (*types.ContentItem, error) {
	items, err := cs.contentRepo.GetByIDs(ctx, tx, []uuid.UUID{contentID})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load content: %w", err))
	}
	if len(items) == 0 {
		return nil, apierr.NotFound("content_not_found", fmt.Errorf("content %s not found", contentID))
	}
	item := items[0]
	if _, err := cs.loadOwnedPathway(ctx, tx, callerID, item.PathwayID); err != nil {
		return nil, err
	}
	return item, nil
}
