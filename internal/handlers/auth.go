package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminauth/internal/apperr"
	"adminauth/internal/middleware"
	"adminauth/internal/models"
	"adminauth/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken  string                  `json:"accessToken"`
	RefreshToken string                  `json:"refreshToken"`
	User         *models.UserInformation `json:"user"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	info, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	pair, err := h.tokens.IssuePair(c.Request.Context(), info.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful", loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         info,
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Registration successful", nil)
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Verification email resent successfully", nil)
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Email verified successfully", nil)
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Password reset email sent successfully", nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Password reset successfully", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Token refreshed successfully", refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	info := middleware.CurrentUser(c)
	if info == nil {
		respondError(c, h.log, apperr.Unauthorized("Unauthorized"))
		return
	}

	if err := h.tokens.RevokeRefreshToken(c.Request.Context(), info.ID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Logged out successfully", nil)
}
