package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knowledgepathways/backend/internal/http/response"
	"github.com/knowledgepathways/backend/internal/pkg/ctxutil"
	"github.com/knowledgepathways/backend/internal/services"
	"github.com/knowledgepathways/backend/internal/types"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// caller pulls the authenticated identity out of the request context.
// The auth middleware guarantees it is present on protected routes.
func caller(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	return rd, true
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	me, err := uh.userService.GetMe(c.Request.Context(), rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me
// body: { "full_name": "..." }
func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	me, err := uh.userService.UpdateProfile(c.Request.Context(), rd.UserID, req.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /api/me/password
// body: { "old_password": "...", "new_password": "..." }
func (uh *UserHandler) ChangePassword(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := uh.userService.ChangePassword(c.Request.Context(), rd.UserID, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/users/:id/deactivate
func (uh *UserHandler) Deactivate(c *gin.Context) {
	rd, ok := caller(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	callerUser := &types.User{ID: rd.UserID, Role: rd.Role}
	if err := uh.userService.DeactivateUser(c.Request.Context(), callerUser, targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
