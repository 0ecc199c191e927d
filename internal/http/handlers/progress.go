package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knowledgepathways/backend/internal/http/response"
	"github.com/knowledgepathways/backend/internal/services"
	"github.com/knowledgepathways/backend/internal/types"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// POST /api/pathways/:id/progress
// body: { "state": "not_started" | "in_progress" | "complete" }
func (ph *ProgressHandler) Mark(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		State string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record, err := ph.progressService.MarkProgress(c.Request.Context(), rd.UserID, pathwayID, req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": record})
}

// POST /api/pathways/:id/progress/reset
// body: { "user_id": "..." } (defaults to the caller)
func (ph *ProgressHandler) Reset(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	targetID := rd.UserID
	if req.UserID != "" {
		targetID, err = uuid.Parse(req.UserID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
	}
	callerUser := &types.User{ID: rd.UserID, Role: rd.Role}
	record, err := ph.progressService.ResetProgress(c.Request.Context(), callerUser, targetID, pathwayID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": record})
}

// GET /api/pathways/:id/progress
func (ph *ProgressHandler) Get(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	record, err := ph.progressService.GetProgress(c.Request.Context(), rd.UserID, pathwayID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": record})
}

// GET /api/progress
func (ph *ProgressHandler) List(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	records, err := ph.progressService.ListProgress(c.Request.Context(), rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": records})
}
