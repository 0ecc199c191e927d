package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgepathways/backend/internal/repos/testutil"
	"github.com/knowledgepathways/backend/internal/types"
)

func TestPathwayRepoListFiltersAndOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewPathwayRepo(db, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice.pathway.repo@example.com")
	bob := testutil.SeedUser(t, ctx, tx, "bob.pathway.repo@example.com")

	now := time.Now().UTC()
	older := &types.Pathway{
		ID:        uuid.New(),
		OwnerID:   alice.ID,
		Title:     "older",
		Status:    types.PathwayStatusPublished,
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	newer := &types.Pathway{
		ID:        uuid.New(),
		OwnerID:   alice.ID,
		Title:     "newer",
		Status:    types.PathwayStatusDraft,
		CreatedAt: now.Add(-1 * time.Hour),
		UpdatedAt: now.Add(-1 * time.Hour),
	}
	other := &types.Pathway{
		ID:        uuid.New(),
		OwnerID:   bob.ID,
		Title:     "other",
		Status:    types.PathwayStatusPublished,
		CreatedAt: now.Add(-30 * time.Minute),
		UpdatedAt: now.Add(-30 * time.Minute),
	}
	if _, err := repo.Create(ctx, tx, []*types.Pathway{older, newer, other}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.List(ctx, tx, PathwayFilter{OwnerID: &alice.ID})
	if err != nil {
		t.Fatalf("List by owner: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List by owner: expected 2, got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("List: expected created_at DESC order, got %q then %q", rows[0].Title, rows[1].Title)
	}

	rows, err = repo.List(ctx, tx, PathwayFilter{OwnerID: &alice.ID, Status: types.PathwayStatusPublished})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != older.ID {
		t.Fatalf("List by status: expected only %q", older.Title)
	}

	// Offset restarts the sequence past already-seen rows.
	rows, err = repo.List(ctx, tx, PathwayFilter{OwnerID: &alice.ID, Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List with offset: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != older.ID {
		t.Fatalf("List with offset: expected %q", older.Title)
	}
}

func TestPathwayRepoSoftDeleteHidesRows(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewPathwayRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "owner.pathway.delete@example.com")
	p := testutil.SeedPathway(t, ctx, tx, owner.ID, "to delete")

	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{p.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}

	rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{p.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected soft-deleted pathway to be hidden, got %d rows", len(rows))
	}

	var count int64
	if err := tx.WithContext(ctx).Unscoped().Model(&types.Pathway{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
		t.Fatalf("unscoped count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected soft-deleted row to remain in table, got %d", count)
	}
}

func TestPathwayRepoUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewPathwayRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "owner.pathway.update@example.com")
	p := testutil.SeedPathway(t, ctx, tx, owner.ID, "before")

	if err := repo.UpdateFields(ctx, tx, p.ID, map[string]interface{}{
		"title":  "after",
		"status": types.PathwayStatusPublished,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{p.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Title != "after" || rows[0].Status != types.PathwayStatusPublished {
		t.Fatalf("UpdateFields: got title=%q status=%q", rows[0].Title, rows[0].Status)
	}
}
