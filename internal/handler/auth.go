package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerAdminRequest struct {
	UserID          string `json:"userID" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// RegisterAdmin handles the hidden admin registration route.
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req registerAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.RegisterAdmin(c.Request.Context(), req.UserID, req.Password, req.ConfirmPassword); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "admin registered successfully"})
}

type loginRequest struct {
	UserID   string `json:"userID" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates admins and teachers.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "role": result.Role, "expiresAt": result.ExpiresAt.Unix()})
}

type changePasswordRequest struct {
	UserID          string `json:"userID" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ChangeAdminPassword handles the hidden admin password change route.
func (h *Handler) ChangeAdminPassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ChangeAdminPassword(c.Request.Context(), req.UserID, req.NewPassword, req.ConfirmPassword); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}
