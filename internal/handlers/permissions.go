package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"adminauth/internal/models"
)

type permissionView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPermissionView(p models.Permission) permissionView {
	return permissionView{ID: p.ID, Name: p.Name, Group: p.Group, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func (h HandlerSet) ListPermissions(c *gin.Context) {
	permissions, err := h.permissions.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]permissionView, 0, len(permissions))
	for _, p := range permissions {
		items = append(items, newPermissionView(p))
	}

	respondSuccess(c, http.StatusOK, "Permissions retrieved successfully", gin.H{"items": items})
}

type permissionRequest struct {
	Name  string `json:"name" binding:"required"`
	Group string `json:"group" binding:"required"`
}

func (h HandlerSet) CreatePermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.permissions.Create(c.Request.Context(), req.Name, req.Group); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Permission created successfully", nil)
}

func (h HandlerSet) PermissionDetail(c *gin.Context) {
	permission, err := h.permissions.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Permission retrieved successfully", newPermissionView(permission))
}

func (h HandlerSet) UpdatePermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.permissions.Update(c.Request.Context(), c.Param("id"), req.Name, req.Group); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Permission updated successfully", nil)
}

func (h HandlerSet) DeletePermission(c *gin.Context) {
	if err := h.permissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Permission deleted successfully", nil)
}

// SelectRoles and SelectPermissions feed form dropdowns with id/name pairs
// without requiring the full management permission set.
func (h HandlerSet) SelectRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]gin.H, 0, len(roles))
	for _, r := range roles {
		items = append(items, gin.H{"id": r.ID, "name": r.Name})
	}

	respondSuccess(c, http.StatusOK, "Roles retrieved successfully", gin.H{"items": items})
}

func (h HandlerSet) SelectPermissions(c *gin.Context) {
	permissions, err := h.permissions.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]gin.H, 0, len(permissions))
	for _, p := range permissions {
		items = append(items, gin.H{"id": p.ID, "name": p.Name, "group": p.Group})
	}

	respondSuccess(c, http.StatusOK, "Permissions retrieved successfully", gin.H{"items": items})
}
