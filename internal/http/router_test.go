package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	httpH "github.com/knowledgepathways/backend/internal/http/handlers"
	httpMW "github.com/knowledgepathways/backend/internal/http/middleware"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/repos/testutil"
	"github.com/knowledgepathways/backend/internal/services"
)

// newTestRouter stands up the whole API against a per-test transaction.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	tokenRepo := repos.NewUserTokenRepo(tx, log)
	pathwayRepo := repos.NewPathwayRepo(tx, log)
	contentRepo := repos.NewContentItemRepo(tx, log)
	progressRepo := repos.NewProgressRecordRepo(tx, log)

	authService := services.NewAuthService(tx, log, userRepo, tokenRepo, "router-test-secret", time.Hour, 24*time.Hour)
	userService := services.NewUserService(tx, log, userRepo, tokenRepo)
	pathwayService := services.NewPathwayService(tx, log, pathwayRepo, contentRepo, progressRepo)
	contentService := services.NewContentService(tx, log, pathwayRepo, contentRepo)
	progressService := services.NewProgressService(tx, log, pathwayRepo, progressRepo)

	return NewRouter(RouterConfig{
		Log:             log,
		HealthHandler:   httpH.NewHealthHandler(),
		AuthHandler:     httpH.NewAuthHandler(authService),
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, authService),
		UserHandler:     httpH.NewUserHandler(userService),
		PathwayHandler:  httpH.NewPathwayHandler(pathwayService),
		ContentHandler:  httpH.NewContentHandler(contentService),
		ProgressHandler: httpH.NewProgressHandler(progressService),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, target, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func registerAndLogin(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	rec, _ := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"email": email, "password": "longenough", "full_name": "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	rec, body := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": email, "password": "longenough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: no access token in %v", email, body)
	}
	return token
}

func TestHealthcheck(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthcheck response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	r := newTestRouter(t)
	for _, target := range []string{"/api/me", "/api/pathways", "/api/progress"} {
		rec, _ := doJSON(t, r, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token: got %d want 401", target, rec.Code)
		}
	}
}

func TestLearnerFlow(t *testing.T) {
	r := newTestRouter(t)
	aliceToken := registerAndLogin(t, r, "alice.flow@example.com")

	// Alice creates a pathway.
	rec, body := doJSON(t, r, http.MethodPost, "/api/pathways", aliceToken, gin.H{
		"title": "Intro to Go", "difficulty": "beginner",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pathway: %d %s", rec.Code, rec.Body.String())
	}
	pathway, _ := body["pathway"].(map[string]any)
	pathwayID, _ := pathway["id"].(string)
	if pathwayID == "" {
		t.Fatalf("no pathway id in %v", body)
	}

	// Adds an item, then inserts another at the head.
	rec, _ = doJSON(t, r, http.MethodPost, "/api/pathways/"+pathwayID+"/content", aliceToken, gin.H{
		"title": "Second Lesson",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add content: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = doJSON(t, r, http.MethodPost, "/api/pathways/"+pathwayID+"/content", aliceToken, gin.H{
		"title": "First Lesson", "position": 0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert content at 0: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/pathways/"+pathwayID+"/content", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list content: %d %s", rec.Code, rec.Body.String())
	}
	items, _ := body["content"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 content items, got %v", body)
	}
	first, _ := items[0].(map[string]any)
	if first["title"] != "First Lesson" {
		t.Fatalf("expected inserted item first, got %v", items)
	}

	// Marks progress and reads it back.
	rec, _ = doJSON(t, r, http.MethodPost, "/api/pathways/"+pathwayID+"/progress", aliceToken, gin.H{
		"state": "in_progress",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark progress: %d %s", rec.Code, rec.Body.String())
	}
	rec, body = doJSON(t, r, http.MethodGet, "/api/progress", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list progress: %d %s", rec.Code, rec.Body.String())
	}
	records, _ := body["progress"].([]any)
	if len(records) != 1 {
		t.Fatalf("expected 1 progress record, got %v", body)
	}
	record, _ := records[0].(map[string]any)
	if record["state"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", record)
	}

	// Backward transition is refused.
	rec, body = doJSON(t, r, http.MethodPost, "/api/pathways/"+pathwayID+"/progress", aliceToken, gin.H{
		"state": "not_started",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("backward progress: got %d want 400 (%s)", rec.Code, rec.Body.String())
	}
}

func TestPathwayOwnershipEnforcedOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	aliceToken := registerAndLogin(t, r, "alice.own@example.com")
	bobToken := registerAndLogin(t, r, "bob.own@example.com")

	rec, body := doJSON(t, r, http.MethodPost, "/api/pathways", aliceToken, gin.H{"title": "Alice Only"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pathway: %d %s", rec.Code, rec.Body.String())
	}
	pathway, _ := body["pathway"].(map[string]any)
	pathwayID, _ := pathway["id"].(string)

	rec, _ = doJSON(t, r, http.MethodDelete, "/api/pathways/"+pathwayID, bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bob deleting alice's pathway: got %d want 403 (%s)", rec.Code, rec.Body.String())
	}

	// Still readable afterwards.
	rec, _ = doJSON(t, r, http.MethodGet, "/api/pathways/"+pathwayID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pathway should survive forbidden delete: %d", rec.Code)
	}

	rec, _ = doJSON(t, r, http.MethodDelete, "/api/pathways/"+pathwayID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = doJSON(t, r, http.MethodGet, "/api/pathways/"+pathwayID, aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted pathway should 404, got %d", rec.Code)
	}
}

func TestLoginLockoutOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	email := "lockout.http@example.com"
	registerAndLogin(t, r, email)

	for i := 0; i < 5; i++ {
		rec, _ := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
			"email": email, "password": fmt.Sprintf("wrong-%d", i),
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("bad login %d: got %d want 401", i, rec.Code)
		}
	}

	rec, body := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": email, "password": "longenough",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("locked login: got %d want 401 (%s)", rec.Code, rec.Body.String())
	}
	envelope, _ := body["error"].(map[string]any)
	if envelope["code"] != "account_locked" {
		t.Fatalf("expected account_locked, got %v", body)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r, "refresh.http@example.com")

	rec, body := doJSON(t, r, http.MethodPost, "/api/refresh", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	newToken, _ := body["access_token"].(string)
	if newToken == "" || newToken == token {
		t.Fatalf("expected a fresh access token")
	}

	// The old access token was rotated out.
	rec, _ = doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old token after refresh: got %d want 401", rec.Code)
	}
	rec, _ = doJSON(t, r, http.MethodGet, "/api/me", newToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new token: got %d want 200 (%s)", rec.Code, rec.Body.String())
	}
}
