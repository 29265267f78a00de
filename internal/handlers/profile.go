package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminauth/internal/apperr"
	"adminauth/internal/middleware"
)

func (h HandlerSet) Profile(c *gin.Context) {
	info := middleware.CurrentUser(c)
	if info == nil {
		respondError(c, h.log, apperr.Unauthorized("Unauthorized"))
		return
	}

	respondSuccess(c, http.StatusOK, "Profile retrieved successfully", info)
}

type updateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	info := middleware.CurrentUser(c)
	if info == nil {
		respondError(c, h.log, apperr.Unauthorized("Unauthorized"))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := h.profiles.UpdateProfile(c.Request.Context(), info.ID, req.Name, req.Email)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Profile updated successfully", updated)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	info := middleware.CurrentUser(c)
	if info == nil {
		respondError(c, h.log, apperr.Unauthorized("Unauthorized"))
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.profiles.UpdatePassword(c.Request.Context(), info.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Password updated successfully", nil)
}
