package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/repos/testutil"
	"github.com/knowledgepathways/backend/internal/types"
)

func newProgressServiceForTest(t *testing.T) (ProgressService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	pathwayRepo := repos.NewPathwayRepo(tx, log)
	progressRepo := repos.NewProgressRecordRepo(tx, log)
	return NewProgressService(tx, log, pathwayRepo, progressRepo), tx
}

func TestMarkProgressMovesForwardOnly(t *testing.T) {
	svc, tx := newProgressServiceForTest(t)
	ctx := context.Background()

	learner := testutil.SeedUser(t, ctx, tx, "prog.learner@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, learner.ID, "Forward March")

	rec, err := svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressInProgress)
	if err != nil {
		t.Fatalf("MarkProgress in_progress: %v", err)
	}
	if rec.StartedAt == nil {
		t.Fatalf("expected started_at to be stamped")
	}
	startedAt := *rec.StartedAt

	rec, err = svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressComplete)
	if err != nil {
		t.Fatalf("MarkProgress complete: %v", err)
	}
	if rec.CompletedAt == nil {
		t.Fatalf("expected completed_at to be stamped")
	}
	// The stored timestamp loses sub-microsecond precision, so compare
	// with a small tolerance.
	if rec.StartedAt == nil || rec.StartedAt.Sub(startedAt) > time.Millisecond || startedAt.Sub(*rec.StartedAt) > time.Millisecond {
		t.Fatalf("started_at should survive later transitions: got %v want %v", rec.StartedAt, startedAt)
	}

	// Marking the same state again is a no-op, not an error.
	if _, err := svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressComplete); err != nil {
		t.Fatalf("re-marking complete: %v", err)
	}

	// Backward transitions are refused.
	_, err = svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressInProgress)
	if err == nil {
		t.Fatalf("expected backward transition to be refused")
	}
	ae := apierr.From(err)
	if ae == nil || ae.Status != http.StatusBadRequest || ae.Code != "invalid_transition" {
		t.Fatalf("expected 400 invalid_transition, got %v", err)
	}
}

func TestMarkProgressUnknownPathway(t *testing.T) {
	svc, tx := newProgressServiceForTest(t)
	ctx := context.Background()

	learner := testutil.SeedUser(t, ctx, tx, "prog.missing@example.com")

	_, err := svc.MarkProgress(ctx, learner.ID, uuid.New(), types.ProgressInProgress)
	if err == nil {
		t.Fatalf("expected unknown pathway to 404")
	}
	ae := apierr.From(err)
	if ae == nil || ae.Status != http.StatusNotFound || ae.Code != "pathway_not_found" {
		t.Fatalf("expected 404 pathway_not_found, got %v", err)
	}
}

func TestMarkProgressKeepsSingleRecord(t *testing.T) {
	svc, tx := newProgressServiceForTest(t)
	ctx := context.Background()

	learner := testutil.SeedUser(t, ctx, tx, "prog.single@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, learner.ID, "One Row")

	for _, state := range []string{types.ProgressNotStarted, types.ProgressInProgress, types.ProgressComplete} {
		if _, err := svc.MarkProgress(ctx, learner.ID, pathway.ID, state); err != nil {
			t.Fatalf("MarkProgress(%s): %v", state, err)
		}
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&types.ProgressRecord{}).
		Where("user_id = ? AND pathway_id = ?", learner.ID, pathway.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count progress: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single progress row, got %d", count)
	}
}

func TestResetProgressAdminOnly(t *testing.T) {
	svc, tx := newProgressServiceForTest(t)
	ctx := context.Background()

	learner := testutil.SeedUser(t, ctx, tx, "prog.reset@example.com")
	admin := testutil.SeedAdmin(t, ctx, tx, "prog.admin@example.com")
	pathway := testutil.SeedPathway(t, ctx, tx, learner.ID, "Resettable")

	if _, err := svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressComplete); err != nil {
		t.Fatalf("MarkProgress: %v", err)
	}

	_, err := svc.ResetProgress(ctx, learner, learner.ID, pathway.ID)
	if err == nil {
		t.Fatalf("expected non-admin reset to be refused")
	}
	ae := apierr.From(err)
	if ae == nil || ae.Status != http.StatusForbidden || ae.Code != "admin_only" {
		t.Fatalf("expected 403 admin_only, got %v", err)
	}

	rec, err := svc.ResetProgress(ctx, admin, learner.ID, pathway.ID)
	if err != nil {
		t.Fatalf("admin ResetProgress: %v", err)
	}
	if rec.State != types.ProgressNotStarted || rec.StartedAt != nil || rec.CompletedAt != nil {
		t.Fatalf("expected cleared record, got %+v", rec)
	}

	// After a reset the learner can walk the states forward again.
	if _, err := svc.MarkProgress(ctx, learner.ID, pathway.ID, types.ProgressInProgress); err != nil {
		t.Fatalf("MarkProgress after reset: %v", err)
	}
}
