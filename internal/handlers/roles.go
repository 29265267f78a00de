package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"adminauth/internal/models"
)

type roleView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newRoleView(r models.Role) roleView {
	return roleView{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (h HandlerSet) ListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]roleView, 0, len(roles))
	for _, r := range roles {
		items = append(items, newRoleView(r))
	}

	respondSuccess(c, http.StatusOK, "Roles retrieved successfully", gin.H{"items": items})
}

type roleRequest struct {
	Name          string   `json:"name" binding:"required"`
	PermissionIDs []string `json:"permissionIds" binding:"required,min=1"`
}

func (h HandlerSet) CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.roles.Create(c.Request.Context(), req.Name, req.PermissionIDs); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Role created successfully", nil)
}

func (h HandlerSet) RoleDetail(c *gin.Context) {
	role, permissions, err := h.roles.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	perms := make([]permissionView, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, newPermissionView(p))
	}

	respondSuccess(c, http.StatusOK, "Role retrieved successfully", gin.H{
		"role":        newRoleView(role),
		"permissions": perms,
	})
}

func (h HandlerSet) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.roles.Update(c.Request.Context(), c.Param("id"), req.Name, req.PermissionIDs); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Role updated successfully", nil)
}

func (h HandlerSet) DeleteRole(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Role deleted successfully", nil)
}
