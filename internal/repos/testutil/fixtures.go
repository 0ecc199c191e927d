package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		FullName: "Test User",
		Role:     types.RoleStudent,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	u.Role = types.RoleAdmin
	if err := tx.WithContext(ctx).Model(u).Update("role", types.RoleAdmin).Error; err != nil {
		tb.Fatalf("seed admin role: %v", err)
	}
	return u
}

func SeedPathway(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, title string) *types.Pathway {
	tb.Helper()
	p := &types.Pathway{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      title,
		Difficulty: types.DifficultyBeginner,
		Status:     types.PathwayStatusDraft,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pathway: %v", err)
	}
	return p
}

func SeedContentItem(tb testing.TB, ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID, position int) *types.ContentItem {
	tb.Helper()
	ci := &types.ContentItem{
		ID:          uuid.New(),
		PathwayID:   pathwayID,
		Position:    position,
		Title:       "content",
		Body:        "body",
		ContentType: types.ContentTypeArticle,
	}
	if err := tx.WithContext(ctx).Create(ci).Error; err != nil {
		tb.Fatalf("seed content item: %v", err)
	}
	return ci
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, pathwayID uuid.UUID, state string) *types.ProgressRecord {
	tb.Helper()
	pr := &types.ProgressRecord{
		ID:        uuid.New(),
		UserID:    userID,
		PathwayID: pathwayID,
		State:     state,
	}
	if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return pr
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
