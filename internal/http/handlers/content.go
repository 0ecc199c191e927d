package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knowledgepathways/backend/internal/http/response"
	"github.com/knowledgepathways/backend/internal/services"
)

type ContentHandler struct {
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// POST /api/pathways/:id/content
// body: { "title": "...", "body": "...", "content_type": "...", "url": "...", "position": 0 }
// Omitting position appends.
func (ch *ContentHandler) Add(c *gin.Context) {
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
		Title       string `json:"title"`
		Body        string `json:"body"`
		ContentType string `json:"content_type"`
		URL         string `json:"url"`
		Position    *int   `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	position := -1
	if req.Position != nil {
		position = *req.Position
	}
	item, err := ch.contentService.AddContent(c.Request.Context(), rd.UserID, pathwayID, services.AddContentInput{
		Title:       req.Title,
		Body:        req.Body,
		ContentType: req.ContentType,
		URL:         req.URL,
		Position:    position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"content": item})
}

// GET /api/pathways/:id/content
func (ch *ContentHandler) List(c *gin.Context) {
	pathwayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	items, err := ch.contentService.ListContent(c.Request.Context(), pathwayID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content": items})
}

// PATCH /api/content/:id
func (ch *ContentHandler) Update(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Body        *string `json:"body"`
		ContentType *string `json:"content_type"`
		URL         *string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	item, err := ch.contentService.UpdateContent(c.Request.Context(), rd.UserID, contentID, services.UpdateContentInput{
		Title:       req.Title,
		Body:        req.Body,
		ContentType: req.ContentType,
		URL:         req.URL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content": item})
}

// DELETE /api/content/:id
func (ch *ContentHandler) Remove(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.contentService.RemoveContent(c.Request.Context(), rd.UserID, contentID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
