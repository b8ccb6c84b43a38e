package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/attendance"
	"github.com/MMagesh23/AMS/internal/model"
	"github.com/MMagesh23/AMS/internal/roster"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return d, nil
}

// ---------- Students ----------

// AddStudent creates a student; category is derived from grade.
func (h *Handler) AddStudent(c *gin.Context) {
	var req roster.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	student, err := h.roster.CreateStudent(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "student added successfully", "student": student})
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	student, err := h.roster.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) EditStudent(c *gin.Context) {
	var req roster.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	student, err := h.roster.UpdateStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student updated", "student": student})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.roster.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student deleted"})
}

// ---------- Teachers ----------

// AddTeacher creates a teacher together with its login account.
func (h *Handler) AddTeacher(c *gin.Context) {
	var req roster.TeacherInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	teacher, err := h.roster.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "teacher created successfully", "teacher": teacher})
}

func (h *Handler) ListTeachers(c *gin.Context) {
	teachers, err := h.roster.ListTeachers(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	c.JSON(http.StatusOK, teachers)
}

type editTeacherRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

func (h *Handler) EditTeacher(c *gin.Context) {
	var req editTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	teacher, err := h.roster.UpdateTeacher(c.Request.Context(), c.Param("id"), req.Name, req.Phone)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "teacher updated", "teacher": teacher})
}

// DeleteTeacher removes the teacher and its owned login account.
func (h *Handler) DeleteTeacher(c *gin.Context) {
	if err := h.roster.DeleteTeacher(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "teacher and associated user deleted"})
}

// ---------- Volunteers ----------

func (h *Handler) AddVolunteer(c *gin.Context) {
	var req roster.VolunteerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	volunteer, err := h.roster.CreateVolunteer(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "volunteer added", "volunteer": volunteer})
}

func (h *Handler) ListVolunteers(c *gin.Context) {
	volunteers, err := h.roster.ListVolunteers(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if volunteers == nil {
		volunteers = []model.Volunteer{}
	}
	c.JSON(http.StatusOK, volunteers)
}

func (h *Handler) EditVolunteer(c *gin.Context) {
	var req roster.VolunteerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	volunteer, err := h.roster.UpdateVolunteer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "volunteer updated", "volunteer": volunteer})
}

func (h *Handler) DeleteVolunteer(c *gin.Context) {
	if err := h.roster.DeleteVolunteer(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "volunteer deleted"})
}

// ---------- Classes & roster reconciliation ----------

type createClassRequest struct {
	Name     string         `json:"name" binding:"required"`
	Category model.Category `json:"category" binding:"required"`
}

func (h *Handler) CreateClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	class, err := h.roster.CreateClass(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "class created", "class": class})
}

func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.roster.ListClasses(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if classes == nil {
		classes = []model.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) GetClass(c *gin.Context) {
	class, err := h.roster.GetClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *Handler) DeleteClass(c *gin.Context) {
	if err := h.roster.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class deleted"})
}

type assignTeacherRequest struct {
	TeacherID string `json:"teacherId" binding:"required"`
	ClassID   string `json:"classId" binding:"required"`
}

func (h *Handler) AssignTeacher(c *gin.Context) {
	var req assignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.roster.AssignTeacher(c.Request.Context(), req.TeacherID, req.ClassID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "teacher assigned to class"})
}

type allocateStudentsRequest struct {
	StudentIDs []string `json:"studentIds" binding:"required"`
}

func (h *Handler) AllocateStudents(c *gin.Context) {
	var req allocateStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.roster.AllocateStudents(c.Request.Context(), c.Param("id"), req.StudentIDs)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "students allocated to class", "added": report.Added, "skipped": report.Skipped})
}

type removeStudentRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

func (h *Handler) RemoveStudentFromClass(c *gin.Context) {
	var req removeStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.roster.RemoveStudentFromClass(c.Request.Context(), c.Param("id"), req.StudentID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student removed from class"})
}

type removeTeacherRequest struct {
	ClassID string `json:"classId" binding:"required"`
}

func (h *Handler) RemoveTeacherFromClass(c *gin.Context) {
	var req removeTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.roster.RemoveTeacherFromClass(c.Request.Context(), req.ClassID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "teacher removed from class"})
}

// ---------- Dashboard ----------

func (h *Handler) DashboardOverview(c *gin.Context) {
	grouped, err := h.roster.CategoryOverview(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, grouped)
}

func (h *Handler) ClassDetail(c *gin.Context) {
	detail, err := h.roster.GetClassDetail(c.Request.Context(), c.Param("classId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ---------- Attendance administration ----------

type addOrUpdateRequest struct {
	ClassID string                   `json:"classId" binding:"required"`
	Date    string                   `json:"date" binding:"required"`
	Records []attendance.RecordInput `json:"records" binding:"required"`
}

// AddOrUpdateAttendance backfills attendance for a past day, idempotently.
func (h *Handler) AddOrUpdateAttendance(c *gin.Context) {
	var req addOrUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondErr(c, err)
		return
	}
	written, err := h.att.AddOrUpdate(c.Request.Context(), req.ClassID, date, req.Records)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance recorded", "count": written})
}

type updateAttendanceRequest struct {
	AttendanceID string       `json:"attendanceId"`
	NewStatus    model.Status `json:"newStatus" binding:"required"`
	StudentID    string       `json:"studentId"`
	ClassID      string       `json:"classId"`
	Date         string       `json:"date"`
}

// UpdateAttendance patches one record, or creates it when no id is given.
func (h *Handler) UpdateAttendance(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in := attendance.UpdateInput{
		AttendanceID: req.AttendanceID,
		Status:       req.NewStatus,
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			respondErr(c, err)
			return
		}
		in.Date = date
	}
	record, err := h.att.UpdateOne(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance updated", "attendance": record})
}

func (h *Handler) StudentAttendance(c *gin.Context) {
	records, err := h.att.StudentHistory(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if records == nil {
		records = []model.Attendance{}
	}
	c.JSON(http.StatusOK, records)
}

// DeleteAttendance hard-deletes one record of the kind in the path.
func (h *Handler) DeleteAttendance(c *gin.Context) {
	kind := attendance.Kind(c.Param("kind"))
	if err := h.att.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance deleted"})
}

type markAttendanceRequest struct {
	EntityID string       `json:"entityId" binding:"required"`
	Date     string       `json:"date" binding:"required"`
	Status   model.Status `json:"status" binding:"required"`
}

// MarkTeacherAttendance records a teacher's own daily attendance.
func (h *Handler) MarkTeacherAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondErr(c, err)
		return
	}
	record, err := h.att.MarkTeacher(c.Request.Context(), req.EntityID, date, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "attendance marked", "attendance": record})
}

// MarkVolunteerAttendance records a volunteer's daily attendance.
func (h *Handler) MarkVolunteerAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondErr(c, err)
		return
	}
	record, err := h.att.MarkVolunteer(c.Request.Context(), req.EntityID, date, req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "attendance marked", "attendance": record})
}

// DailySummary tallies one class for one day.
func (h *Handler) DailySummary(c *gin.Context) {
	date, err := parseDate(c.Param("date"))
	if err != nil {
		respondErr(c, err)
		return
	}
	summary, err := h.att.DailySummary(c.Request.Context(), c.Param("classId"), date)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AttendanceOverview aggregates the last N days per class, default 7.
func (h *Handler) AttendanceOverview(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			days = parsed
		}
	}
	overview, err := h.att.Overview(c.Request.Context(), days)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "classes": overview})
}

// ---------- Time window ----------

// SetTimeWindow upserts the daily submission window.
func (h *Handler) SetTimeWindow(c *gin.Context) {
	var req model.TimeWindow
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.windows.Set(c.Request.Context(), req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "time window saved", "timeWindow": req})
}

func (h *Handler) GetTimeWindow(c *gin.Context) {
	window, err := h.windows.Get(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}
