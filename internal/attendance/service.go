package attendance

import (
	"context"
	"math"
	"time"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/model"
)

// Store is the persistence surface the attendance service needs.
// Implemented by *Repository; tests substitute an in-memory fake.
type Store interface {
	InsertStudentAttendance(ctx context.Context, a model.Attendance) (model.Attendance, error)
	UpsertStudentAttendance(ctx context.Context, a model.Attendance) (model.Attendance, error)
	GetStudentAttendance(ctx context.Context, id string) (*model.Attendance, error)
	UpdateStudentAttendanceStatus(ctx context.Context, id string, status model.Status) error
	DeleteStudentAttendance(ctx context.Context, id string) error
	ClassHasSubmission(ctx context.Context, classID string, day time.Time) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Attendance, error)
	ListByClass(ctx context.Context, classID string) ([]model.Attendance, error)
	ClassDayCounts(ctx context.Context, classID string, day time.Time) (present, absent int, err error)
	CountClassStudents(ctx context.Context, classID string) (int, error)
	ClassRangeCounts(ctx context.Context, from, to time.Time) ([]OverviewRow, error)

	TeacherMarked(ctx context.Context, teacherID string, day time.Time) (bool, error)
	InsertTeacherAttendance(ctx context.Context, a model.EntityAttendance) (model.EntityAttendance, error)
	DeleteTeacherAttendance(ctx context.Context, id string) error
	VolunteerMarked(ctx context.Context, volunteerID string, day time.Time) (bool, error)
	InsertVolunteerAttendance(ctx context.Context, a model.EntityAttendance) (model.EntityAttendance, error)
	DeleteVolunteerAttendance(ctx context.Context, id string) error

	GetTeacherByUser(ctx context.Context, userID string) (*model.Teacher, error)
	TeacherExists(ctx context.Context, id string) (bool, error)
	VolunteerExists(ctx context.Context, id string) (bool, error)
}

// WindowSource yields the configured daily submission window.
type WindowSource interface {
	Get(ctx context.Context) (model.TimeWindow, error)
}

// Service performs per-day attendance capture. Every stored date is a UTC
// calendar day (midnight-truncated); uniqueness checks use the same key.
type Service struct {
	store   Store
	windows WindowSource
	now     func() time.Time
}

// NewService creates an attendance service. now may be nil for wall clock.
func NewService(store Store, windows WindowSource, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, windows: windows, now: now}
}

// RecordInput is one student's status in a submission.
type RecordInput struct {
	StudentID string       `json:"studentId" binding:"required"`
	Status    model.Status `json:"status" binding:"required"`
}

func validateRecords(records []RecordInput) error {
	if len(records) == 0 {
		return apperr.Validation("records required")
	}
	for _, rec := range records {
		if !rec.Status.Valid() {
			return apperr.Validation("invalid status %q", rec.Status)
		}
	}
	return nil
}

// Submit writes today's attendance for the teacher's class: one record per
// student, rejected when already submitted today or outside the time
// window. Mid-list write failures are not rolled back.
func (s *Service) Submit(ctx context.Context, userAccountID string, records []RecordInput) (int, error) {
	if err := validateRecords(records); err != nil {
		return 0, err
	}
	teacher, err := s.store.GetTeacherByUser(ctx, userAccountID)
	if err != nil {
		return 0, err
	}
	if teacher == nil {
		return 0, apperr.NotFound("teacher not found")
	}
	if teacher.ClassAssigned == "" {
		return 0, apperr.Validation("no class assigned")
	}

	now := s.now()
	today := model.Day(now)
	submitted, err := s.store.ClassHasSubmission(ctx, teacher.ClassAssigned, today)
	if err != nil {
		return 0, err
	}
	if submitted {
		return 0, apperr.Conflict("attendance already submitted today")
	}

	window, err := s.windows.Get(ctx)
	if err != nil {
		return 0, apperr.Forbidden("submission window not configured")
	}
	if !Contains(window, now) {
		return 0, apperr.Forbidden("attendance can only be submitted between %s and %s", window.StartTime, window.EndTime)
	}

	written := 0
	for _, rec := range records {
		_, err := s.store.InsertStudentAttendance(ctx, model.Attendance{
			StudentID:   rec.StudentID,
			ClassID:     teacher.ClassAssigned,
			Date:        today,
			Status:      rec.Status,
			SubmittedBy: teacher.ID,
		})
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// CheckToday reports whether the teacher's class already has a submission today.
func (s *Service) CheckToday(ctx context.Context, userAccountID string) (bool, error) {
	teacher, err := s.store.GetTeacherByUser(ctx, userAccountID)
	if err != nil {
		return false, err
	}
	if teacher == nil {
		return false, apperr.NotFound("teacher not found")
	}
	if teacher.ClassAssigned == "" {
		return false, apperr.Validation("no class assigned")
	}
	return s.store.ClassHasSubmission(ctx, teacher.ClassAssigned, model.Day(s.now()))
}

// PastAttendance returns the teacher's class history, newest first.
func (s *Service) PastAttendance(ctx context.Context, userAccountID string) ([]model.Attendance, error) {
	teacher, err := s.store.GetTeacherByUser(ctx, userAccountID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, apperr.NotFound("teacher not found")
	}
	if teacher.ClassAssigned == "" {
		return nil, apperr.Validation("no class assigned")
	}
	return s.store.ListByClass(ctx, teacher.ClassAssigned)
}

// AddOrUpdate backfills a class's attendance for a past day, upserting per
// (student, day). Invoking it twice with the same payload is a no-op the
// second time.
func (s *Service) AddOrUpdate(ctx context.Context, classID string, date time.Time, records []RecordInput) (int, error) {
	if classID == "" {
		return 0, apperr.Validation("classId required")
	}
	if err := validateRecords(records); err != nil {
		return 0, err
	}
	day := model.Day(date)
	if day.After(model.Day(s.now())) {
		return 0, apperr.Validation("cannot record attendance for a future date")
	}
	written := 0
	for _, rec := range records {
		_, err := s.store.UpsertStudentAttendance(ctx, model.Attendance{
			StudentID: rec.StudentID,
			ClassID:   classID,
			Date:      day,
			Status:    rec.Status,
		})
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// UpdateInput drives the single-record admin edit: either an existing
// record id, or the natural key for a record that never existed.
type UpdateInput struct {
	AttendanceID string       `json:"attendanceId"`
	Status       model.Status `json:"newStatus" binding:"required"`
	StudentID    string       `json:"studentId"`
	ClassID      string       `json:"classId"`
	Date         time.Time    `json:"date"`
}

// UpdateOne patches one record's status, or creates the record when no id
// is supplied (the interactive toggle path).
func (s *Service) UpdateOne(ctx context.Context, in UpdateInput) (model.Attendance, error) {
	if !in.Status.Valid() {
		return model.Attendance{}, apperr.Validation("invalid status %q", in.Status)
	}
	if in.AttendanceID != "" {
		existing, err := s.store.GetStudentAttendance(ctx, in.AttendanceID)
		if err != nil {
			return model.Attendance{}, err
		}
		if existing == nil {
			return model.Attendance{}, apperr.NotFound("attendance record not found")
		}
		if err := s.store.UpdateStudentAttendanceStatus(ctx, in.AttendanceID, in.Status); err != nil {
			return model.Attendance{}, err
		}
		existing.Status = in.Status
		return *existing, nil
	}

	if in.StudentID == "" || in.ClassID == "" || in.Date.IsZero() {
		return model.Attendance{}, apperr.Validation("studentId, classId and date required when attendanceId is absent")
	}
	day := model.Day(in.Date)
	if day.After(model.Day(s.now())) {
		return model.Attendance{}, apperr.Validation("cannot record attendance for a future date")
	}
	return s.store.UpsertStudentAttendance(ctx, model.Attendance{
		StudentID: in.StudentID,
		ClassID:   in.ClassID,
		Date:      day,
		Status:    in.Status,
	})
}

// StudentHistory returns all records for one student.
func (s *Service) StudentHistory(ctx context.Context, studentID string) ([]model.Attendance, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// MarkTeacher records a teacher's own daily attendance. One record per day;
// duplicates are rejected, not merged.
func (s *Service) MarkTeacher(ctx context.Context, teacherID string, date time.Time, status model.Status) (model.EntityAttendance, error) {
	if !status.Valid() {
		return model.EntityAttendance{}, apperr.Validation("invalid status %q", status)
	}
	exists, err := s.store.TeacherExists(ctx, teacherID)
	if err != nil {
		return model.EntityAttendance{}, err
	}
	if !exists {
		return model.EntityAttendance{}, apperr.NotFound("teacher not found")
	}
	day := model.Day(date)
	marked, err := s.store.TeacherMarked(ctx, teacherID, day)
	if err != nil {
		return model.EntityAttendance{}, err
	}
	if marked {
		return model.EntityAttendance{}, apperr.Conflict("attendance already marked")
	}
	return s.store.InsertTeacherAttendance(ctx, model.EntityAttendance{EntityID: teacherID, Date: day, Status: status})
}

// MarkVolunteer records a volunteer's daily attendance, same rules as MarkTeacher.
func (s *Service) MarkVolunteer(ctx context.Context, volunteerID string, date time.Time, status model.Status) (model.EntityAttendance, error) {
	if !status.Valid() {
		return model.EntityAttendance{}, apperr.Validation("invalid status %q", status)
	}
	exists, err := s.store.VolunteerExists(ctx, volunteerID)
	if err != nil {
		return model.EntityAttendance{}, err
	}
	if !exists {
		return model.EntityAttendance{}, apperr.NotFound("volunteer not found")
	}
	day := model.Day(date)
	marked, err := s.store.VolunteerMarked(ctx, volunteerID, day)
	if err != nil {
		return model.EntityAttendance{}, err
	}
	if marked {
		return model.EntityAttendance{}, apperr.Conflict("attendance already marked")
	}
	return s.store.InsertVolunteerAttendance(ctx, model.EntityAttendance{EntityID: volunteerID, Date: day, Status: status})
}

// Kind selects which attendance collection a delete targets.
type Kind string

const (
	KindStudent   Kind = "student"
	KindTeacher   Kind = "teacher"
	KindVolunteer Kind = "volunteer"
)

// Delete hard-deletes one record of the given kind. No audit trail.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	switch kind {
	case KindStudent:
		return s.store.DeleteStudentAttendance(ctx, id)
	case KindTeacher:
		return s.store.DeleteTeacherAttendance(ctx, id)
	case KindVolunteer:
		return s.store.DeleteVolunteerAttendance(ctx, id)
	default:
		return apperr.Validation("unknown attendance kind %q", kind)
	}
}

// Summary is one class's tally for one day.
type Summary struct {
	Total     int  `json:"total"`
	Present   int  `json:"present"`
	Absent    int  `json:"absent"`
	Submitted bool `json:"submitted"`
}

// DailySummary tallies a class for one day. Total is the membership size;
// students with no record count toward neither present nor absent.
func (s *Service) DailySummary(ctx context.Context, classID string, date time.Time) (Summary, error) {
	day := model.Day(date)
	total, err := s.store.CountClassStudents(ctx, classID)
	if err != nil {
		return Summary{}, err
	}
	present, absent, err := s.store.ClassDayCounts(ctx, classID, day)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Total:     total,
		Present:   present,
		Absent:    absent,
		Submitted: present+absent > 0,
	}, nil
}

// ClassOverview is one class's rolling percentage.
type ClassOverview struct {
	ClassID    string `json:"classId"`
	ClassName  string `json:"className"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	PresentPct int    `json:"presentPct"`
}

// Overview aggregates the last N days per class. Percentage is
// round(present/total*100), zero when a class has no records.
func (s *Service) Overview(ctx context.Context, days int) ([]ClassOverview, error) {
	if days <= 0 {
		days = 7
	}
	to := model.Day(s.now())
	from := to.AddDate(0, 0, -(days - 1))
	rows, err := s.store.ClassRangeCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	res := make([]ClassOverview, 0, len(rows))
	for _, row := range rows {
		res = append(res, ClassOverview{
			ClassID:    row.ClassID,
			ClassName:  row.ClassName,
			Present:    row.Present,
			Absent:     row.Absent,
			PresentPct: Percentage(row.Present, row.Present+row.Absent),
		})
	}
	return res, nil
}

// Percentage is round(part/total*100), 0 when total is 0.
func Percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
