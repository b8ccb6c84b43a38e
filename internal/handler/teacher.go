package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MMagesh23/AMS/internal/attendance"
	"github.com/MMagesh23/AMS/internal/auth"
	"github.com/MMagesh23/AMS/internal/model"
)

// AssignedClass returns the calling teacher's class and roster.
func (h *Handler) AssignedClass(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing claims", "code": "unauthorized"})
		return
	}
	assigned, err := h.roster.GetAssignedClass(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, assigned)
}

// CheckAttendanceStatus reports whether today's submission already happened.
func (h *Handler) CheckAttendanceStatus(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing claims", "code": "unauthorized"})
		return
	}
	submitted, err := h.att.CheckToday(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": submitted})
}

type submitAttendanceRequest struct {
	Records []attendance.RecordInput `json:"records" binding:"required"`
}

// SubmitAttendance writes today's records for the teacher's class, gated
// by the daily time window.
func (h *Handler) SubmitAttendance(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing claims", "code": "unauthorized"})
		return
	}
	var req submitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	written, err := h.att.Submit(c.Request.Context(), claims.Subject, req.Records)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "attendance submitted", "count": written})
}

// PastAttendance returns the teacher's class history, newest first.
func (h *Handler) PastAttendance(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing claims", "code": "unauthorized"})
		return
	}
	records, err := h.att.PastAttendance(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	if records == nil {
		records = []model.Attendance{}
	}
	c.JSON(http.StatusOK, records)
}
