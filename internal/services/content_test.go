package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/repos/testutil"
	"github.com/knowledgepathways/backend/internal/types"
)

func newContentServiceForTest(t *testing.T) (ContentService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	pathwayRepo := repos.NewPathwayRepo(tx, log)
	contentRepo := repos.NewContentItemRepo(tx, log)
	return NewContentService(tx, log, pathwayRepo, contentRepo), tx
}

func contentTitles(t *testing.T, ctx context.Context, tx *gorm.DB, pathwayID uuid.UUID) []string {
	t.Helper()
	var items []*types.ContentItem
	if err := tx.WithContext(ctx).
		Where("pathway_id = ?", pathwayID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		t.Fatalf("list content: %v", err)
	}
	titles := make([]string, 0, len(items))
	for i, item := range items {
		if item.Position != i {
			t.Fatalf("positions not contiguous: item %d has position %d", i, item.Position)
		}
		titles = append(titles, item.Title)
	}
	return titles
}

func TestAddContentKeepsPositionsContiguous(t *testing.T) {
	svc, tx := newContentServiceForTest(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "content.owner@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, owner.ID, "Ordering 101")

	add := func(title string, position int) {
		t.Helper()
		if _, err := svc.AddContent(ctx, owner.ID, pathway.ID, AddContentInput{Title: title, Position: position}); err != nil {
			t.Fatalf("AddContent(%q, %d): %v", title, position, err)
		}
	}

	add("first", -1)       // append to empty
	add("third", -1)       // append
	add("second", 1)       // insert in the middle, shifts "third"
	add("zeroth", 0)       // insert at the head, shifts everything

	got := contentTitles(t, ctx, tx, pathway.ID)
	want := []string{"zeroth", "first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %q want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestAddContentRejectsOutOfBoundsPosition(t *testing.T) {
	svc, tx := newContentServiceForTest(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "content.bounds@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, owner.ID, "Bounds")
	testutil.SeedContentItem(t, ctx, tx, pathway.ID, 0)

	_, err := svc.AddContent(ctx, owner.ID, pathway.ID, AddContentInput{Title: "too far", Position: 5})
	if err == nil {
		t.Fatalf("expected out-of-bounds position to be rejected")
	}
	ae := apierr.From(err)
	if ae == nil || ae.Status != http.StatusBadRequest || ae.Code != "invalid_position" {
		t.Fatalf("expected 400 invalid_position, got %v", err)
	}
}

func TestAddContentForbiddenForNonOwner(t *testing.T) {
	svc, tx := newContentServiceForTest(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "content.alice@example.com")
	other := testutil.SeedUser(t, ctx, tx, "content.bob@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, owner.ID, "Alice's Pathway")

	_, err := svc.AddContent(ctx, other.ID, pathway.ID, AddContentInput{Title: "intruder", Position: -1})
	if err == nil {
		t.Fatalf("expected non-owner to be refused")
	}
	ae := apierr.From(err)
	if ae == nil || ae.Status != http.StatusForbidden || ae.Code != "not_owner" {
		t.Fatalf("expected 403 not_owner, got %v", err)
	}
}

func TestRemoveContentClosesPositionGap(t *testing.T) {
	svc, tx := newContentServiceForTest(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "content.remove@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, owner.ID, "Gaps")

	var ids []uuid.UUID
	for i, title := range []string{"a", "b", "c"} {
		item, err := svc.AddContent(ctx, owner.ID, pathway.ID, AddContentInput{Title: title, Position: i})
		if err != nil {
			t.Fatalf("AddContent(%q): %v", title, err)
		}
		ids = append(ids, item.ID)
	}

	if err := svc.RemoveContent(ctx, owner.ID, ids[1]); err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}

	got := contentTitles(t, ctx, tx, pathway.ID)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("expected [a c] after removal, got %v", got)
	}
}

func TestUpdateContentValidatesType(t *testing.T) {
	svc, tx := newContentServiceForTest(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "content.update@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, owner.ID, "Updates")
	item := testutil.SeedContentItem(t, ctx, tx, pathway.ID, 0)

	bad := "hologram"
	if _, err := svc.UpdateContent(ctx, owner.ID, item.ID, UpdateContentInput{ContentType: &bad}); err == nil {
		t.Fatalf("expected unknown content type to be rejected")
	}

	video := types.ContentTypeVideo
	url := "https://example.com/v/1"
	updated, err := svc.UpdateContent(ctx, owner.ID, item.ID, UpdateContentInput{ContentType: &video, URL: &url})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if updated.ContentType != types.ContentTypeVideo || updated.URL != url {
		t.Fatalf("update did not stick: %+v", updated)
	}
}
