package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knowledgepathways/backend/internal/http/response"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/services"
)

type PathwayHandler struct {
	pathwayService services.PathwayService
}

func NewPathwayHandler(pathwayService services.PathwayService) *PathwayHandler {
	return &PathwayHandler{pathwayService: pathwayService}
}

// POST /api/pathways
func (ph *PathwayHandler) Create(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Title             string `json:"title"`
		Description       string `json:"description"`
		Difficulty        string `json:"difficulty"`
		EstimatedDuration int    `json:"estimated_duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pathway, err := ph.pathwayService.CreatePathway(c.Request.Context(), rd.UserID, services.CreatePathwayInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        req.Difficulty,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"pathway": pathway})
}

// GET /api/pathways
// query: owner=me, status=draft|published|archived, limit, offset
func (ph *PathwayHandler) List(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	filter := repos.PathwayFilter{
		Status: c.Query("status"),
	}
	if c.Query("owner") == "me" {
		ownerID := rd.UserID
		filter.OwnerID = &ownerID
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_offset", err)
			return
		}
		filter.Offset = n
	}
	pathways, err := ph.pathwayService.ListPathways(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pathways": pathways})
}

// GET /api/pathways/:id
func (ph *PathwayHandler) Get(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	pathway, err := ph.pathwayService.GetPathway(c.Request.Context(), pathwayID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pathway": pathway})
}

// PATCH /api/pathways/:id
func (ph *PathwayHandler) Update(c *gin.Context) {
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
		Title             *string `json:"title"`
		Description       *string `json:"description"`
		Difficulty        *string `json:"difficulty"`
		Status            *string `json:"status"`
		EstimatedDuration *int    `json:"estimated_duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pathway, err := ph.pathwayService.UpdatePathway(c.Request.Context(), rd.UserID, pathwayID, services.UpdatePathwayInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        req.Difficulty,
		Status:            req.Status,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pathway": pathway})
}

// DELETE /api/pathways/:id
func (ph *PathwayHandler) Delete(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ph.pathwayService.DeletePathway(c.Request.Context(), rd.UserID, pathwayID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
