package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MMagesh23/AMS/internal/model"
)

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertStudentAttendance writes a new student record.
func (r *Repository) InsertStudentAttendance(ctx context.Context, a model.Attendance) (model.Attendance, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, class_id, date, status, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.StudentID, a.ClassID, a.Date, a.Status, nullable(a.SubmittedBy))
	return a, err
}

// UpsertStudentAttendance writes a record keyed by (student, day),
// overwriting the status when one already exists.
func (r *Repository) UpsertStudentAttendance(ctx context.Context, a model.Attendance) (model.Attendance, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, class_id, date, status, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			class_id = EXCLUDED.class_id,
			submitted_by = EXCLUDED.submitted_by
	`, a.ID, a.StudentID, a.ClassID, a.Date, a.Status, nullable(a.SubmittedBy))
	return a, err
}

// GetStudentAttendance returns one record by id, nil when absent.
func (r *Repository) GetStudentAttendance(ctx context.Context, id string) (*model.Attendance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, class_id, date, status, submitted_by
		FROM attendance WHERE id = $1
	`, id)
	return scanAttendance(row)
}

// UpdateStudentAttendanceStatus patches a record's status.
func (r *Repository) UpdateStudentAttendanceStatus(ctx context.Context, id string, status model.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE attendance SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteStudentAttendance hard-deletes one record.
func (r *Repository) DeleteStudentAttendance(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	return err
}

// ClassHasSubmission reports whether any record exists for the class on the day.
func (r *Repository) ClassHasSubmission(ctx context.Context, classID string, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM attendance WHERE class_id = $1 AND date = $2)
	`, classID, day).Scan(&exists)
	return exists, err
}

// ListByStudent returns a student's full history, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]model.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, a.class_id, a.date, a.status, a.submitted_by, s.name
		FROM attendance a
		LEFT JOIN students s ON s.id = a.student_id
		WHERE a.student_id = $1
		ORDER BY a.date DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return collectWithNames(rows)
}

// ListByClass returns a class's records, newest first, names joined.
func (r *Repository) ListByClass(ctx context.Context, classID string) ([]model.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, a.class_id, a.date, a.status, a.submitted_by, s.name
		FROM attendance a
		LEFT JOIN students s ON s.id = a.student_id
		WHERE a.class_id = $1
		ORDER BY a.date DESC, s.name
	`, classID)
	if err != nil {
		return nil, err
	}
	return collectWithNames(rows)
}

// ClassDayCounts tallies present/absent rows for a class on a day.
func (r *Repository) ClassDayCounts(ctx context.Context, classID string, day time.Time) (present, absent int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'present'),
		       COUNT(*) FILTER (WHERE status = 'absent')
		FROM attendance WHERE class_id = $1 AND date = $2
	`, classID, day).Scan(&present, &absent)
	return present, absent, err
}

// CountClassStudents returns the class membership size.
func (r *Repository) CountClassStudents(ctx context.Context, classID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM class_students WHERE class_id = $1
	`, classID).Scan(&n)
	return n, err
}

// OverviewRow aggregates one class over a date range.
type OverviewRow struct {
	ClassID   string
	ClassName string
	Present   int
	Absent    int
}

// ClassRangeCounts tallies present/absent per class for dates in [from, to].
func (r *Repository) ClassRangeCounts(ctx context.Context, from, to time.Time) ([]OverviewRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name,
		       COUNT(a.id) FILTER (WHERE a.status = 'present'),
		       COUNT(a.id) FILTER (WHERE a.status = 'absent')
		FROM classes c
		LEFT JOIN attendance a ON a.class_id = c.id AND a.date BETWEEN $1 AND $2
		GROUP BY c.id, c.name
		ORDER BY c.name
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []OverviewRow
	for rows.Next() {
		var row OverviewRow
		if err := rows.Scan(&row.ClassID, &row.ClassName, &row.Present, &row.Absent); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// ---- teacher / volunteer attendance ----

// TeacherMarked reports whether the teacher already has a record for the day.
func (r *Repository) TeacherMarked(ctx context.Context, teacherID string, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM teacher_attendance WHERE teacher_id = $1 AND date = $2)
	`, teacherID, day).Scan(&exists)
	return exists, err
}

// InsertTeacherAttendance writes a teacher's record for a day.
func (r *Repository) InsertTeacherAttendance(ctx context.Context, a model.EntityAttendance) (model.EntityAttendance, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teacher_attendance (id, teacher_id, date, status)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.EntityID, a.Date, a.Status)
	return a, err
}

// DeleteTeacherAttendance hard-deletes one record.
func (r *Repository) DeleteTeacherAttendance(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM teacher_attendance WHERE id = $1`, id)
	return err
}

// VolunteerMarked reports whether the volunteer already has a record for the day.
func (r *Repository) VolunteerMarked(ctx context.Context, volunteerID string, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM volunteer_attendance WHERE volunteer_id = $1 AND date = $2)
	`, volunteerID, day).Scan(&exists)
	return exists, err
}

// InsertVolunteerAttendance writes a volunteer's record for a day.
func (r *Repository) InsertVolunteerAttendance(ctx context.Context, a model.EntityAttendance) (model.EntityAttendance, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO volunteer_attendance (id, volunteer_id, date, status)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.EntityID, a.Date, a.Status)
	return a, err
}

// DeleteVolunteerAttendance hard-deletes one record.
func (r *Repository) DeleteVolunteerAttendance(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM volunteer_attendance WHERE id = $1`, id)
	return err
}

// ---- lookups used by the submission path ----

// GetTeacherByUser returns the teacher owning a user account, nil when absent.
func (r *Repository) GetTeacherByUser(ctx context.Context, userID string) (*model.Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, user_id, class_assigned FROM teachers WHERE user_id = $1
	`, userID)
	var t model.Teacher
	var class sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Phone, &t.UserID, &class); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.ClassAssigned = class.String
	return &t, nil
}

// TeacherExists checks the teacher id.
func (r *Repository) TeacherExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// VolunteerExists checks the volunteer id.
func (r *Repository) VolunteerExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM volunteers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// ---- time window ----

// GetTimeWindow returns the singleton window, nil when never configured.
func (r *Repository) GetTimeWindow(ctx context.Context) (*model.TimeWindow, error) {
	row := r.db.QueryRowContext(ctx, `SELECT start_time, end_time FROM time_window WHERE id = 1`)
	var tw model.TimeWindow
	if err := row.Scan(&tw.StartTime, &tw.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tw, nil
}

// SetTimeWindow upserts the singleton row.
func (r *Repository) SetTimeWindow(ctx context.Context, tw model.TimeWindow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_window (id, start_time, end_time)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
	`, tw.StartTime, tw.EndTime)
	return err
}

func scanAttendance(row *sql.Row) (*model.Attendance, error) {
	var a model.Attendance
	var submittedBy sql.NullString
	if err := row.Scan(&a.ID, &a.StudentID, &a.ClassID, &a.Date, &a.Status, &submittedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.SubmittedBy = submittedBy.String
	return &a, nil
}

func collectWithNames(rows *sql.Rows) ([]model.Attendance, error) {
	defer rows.Close()
	var res []model.Attendance
	for rows.Next() {
		var a model.Attendance
		var submittedBy, name sql.NullString
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ClassID, &a.Date, &a.Status, &submittedBy, &name); err != nil {
			return nil, err
		}
		a.SubmittedBy = submittedBy.String
		a.StudentName = name.String
		res = append(res, a)
	}
	return res, rows.Err()
}
