package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"adminauth/internal/models"
	"adminauth/internal/service"
)

// userView is the wire shape for user records. The password hash never
// leaves the repository layer.
type userView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Status          string     `json:"status"`
	Remark          *string    `json:"remark"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Status:          string(u.Status),
		Remark:          u.Remark,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func paginationParams(c *gin.Context) (limit int, offset int) {
	limit = 50
	offset = 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	limit, offset := paginationParams(c)

	users, total, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]userView, 0, len(users))
	for _, u := range users {
		items = append(items, newUserView(u))
	}

	respondSuccess(c, http.StatusOK, "Users retrieved successfully", gin.H{
		"items": items,
		"total": total,
	})
}

type createUserRequest struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	RoleIDs  []string `json:"roleIds" binding:"required,min=1"`
	Remark   *string  `json:"remark"`
	Status   string   `json:"status" binding:"omitempty,oneof=active inactive suspended blocked"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
		Remark:   req.Remark,
		Status:   models.UserStatus(req.Status),
	}); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "User created successfully", nil)
}

func (h HandlerSet) UserDetail(c *gin.Context) {
	detail, err := h.users.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "User retrieved successfully", gin.H{
		"user":  newUserView(detail.User),
		"roles": detail.Roles,
	})
}

type updateUserRequest struct {
	Name    string   `json:"name" binding:"required"`
	Email   string   `json:"email" binding:"required,email"`
	RoleIDs []string `json:"roleIds" binding:"required,min=1"`
	Remark  *string  `json:"remark"`
	Status  string   `json:"status" binding:"omitempty,oneof=active inactive suspended blocked"`
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.users.Update(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
		Name:    req.Name,
		Email:   req.Email,
		RoleIDs: req.RoleIDs,
		Remark:  req.Remark,
		Status:  models.UserStatus(req.Status),
	}); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "User updated successfully", nil)
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "User deleted successfully", nil)
}

type adminResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) AdminResetPassword(c *gin.Context) {
	var req adminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Password reset successfully", nil)
}
