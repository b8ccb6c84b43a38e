package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/attendance"
	"github.com/MMagesh23/AMS/internal/auth"
	"github.com/MMagesh23/AMS/internal/model"
	"github.com/MMagesh23/AMS/internal/roster"
)

// Handler exposes the roster and attendance services over HTTP.
type Handler struct {
	auth    *auth.Service
	roster  *roster.Service
	att     *attendance.Service
	windows *attendance.Windows
}

// New creates a handler.
func New(authSvc *auth.Service, rosterSvc *roster.Service, attSvc *attendance.Service, windows *attendance.Windows) *Handler {
	return &Handler{auth: authSvc, roster: rosterSvc, att: attSvc, windows: windows}
}

// Register mounts all routes: /api/auth open, /api/admin and /api/teacher
// gated by bearer token plus role.
func (h *Handler) Register(r *gin.Engine, signingKey, issuer string) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/admin-register", h.RegisterAdmin) // hidden
	authGroup.POST("/login", h.Login)
	authGroup.POST("/admin-change-password", h.ChangeAdminPassword) // hidden

	admin := api.Group("/admin", auth.Bearer(signingKey, issuer), auth.RequireRole(model.RoleAdmin))
	admin.POST("/students", h.AddStudent)
	admin.GET("/students", h.ListStudents)
	admin.GET("/students/:id", h.GetStudent)
	admin.PUT("/students/:id", h.EditStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)

	admin.POST("/teachers", h.AddTeacher)
	admin.GET("/teachers", h.ListTeachers)
	admin.PUT("/teachers/:id", h.EditTeacher)
	admin.DELETE("/teachers/:id", h.DeleteTeacher)

	admin.POST("/volunteers", h.AddVolunteer)
	admin.GET("/volunteers", h.ListVolunteers)
	admin.PUT("/volunteers/:id", h.EditVolunteer)
	admin.DELETE("/volunteers/:id", h.DeleteVolunteer)

	admin.POST("/classes", h.CreateClass)
	admin.GET("/classes", h.ListClasses)
	admin.GET("/classes/:id", h.GetClass)
	admin.DELETE("/classes/:id", h.DeleteClass)
	admin.POST("/classes/assign-teacher", h.AssignTeacher)
	admin.POST("/classes/:id/allocate-students", h.AllocateStudents)
	admin.PATCH("/classes/:id/remove-student", h.RemoveStudentFromClass)
	admin.POST("/classes/remove-teacher", h.RemoveTeacherFromClass)

	admin.GET("/dashboard", h.DashboardOverview)
	admin.GET("/dashboard/class/:classId", h.ClassDetail)

	admin.POST("/attendance/add-or-update", h.AddOrUpdateAttendance)
	admin.PUT("/attendance/update", h.UpdateAttendance)
	admin.GET("/attendance/student/:studentId", h.StudentAttendance)
	admin.DELETE("/attendance/:kind/:id", h.DeleteAttendance)
	admin.POST("/attendance/teacher", h.MarkTeacherAttendance)
	admin.POST("/attendance/volunteer", h.MarkVolunteerAttendance)
	admin.GET("/summary/:classId/:date", h.DailySummary)
	admin.GET("/attendance/overview", h.AttendanceOverview)

	admin.POST("/time-window", h.SetTimeWindow)
	admin.GET("/time-window", h.GetTimeWindow)

	teacher := api.Group("/teacher", auth.Bearer(signingKey, issuer), auth.RequireRole(model.RoleTeacher))
	teacher.GET("/assigned-class", h.AssignedClass)
	teacher.GET("/check-attendance-status", h.CheckAttendanceStatus)
	teacher.POST("/submit-attendance", h.SubmitAttendance)
	teacher.GET("/past-attendance", h.PastAttendance)
}

// respondErr maps a service error to the {message, code} wire shape.
func respondErr(c *gin.Context, err error) {
	e := apperr.From(err)
	c.JSON(e.Code.HTTPStatus(), gin.H{"message": e.Message, "code": e.Code})
}

func badRequest(c *gin.Context, err error) {
	respondErr(c, apperr.Validation("%s", err.Error()))
}
