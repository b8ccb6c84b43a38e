package roster

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/MMagesh23/AMS/internal/model"
)

// Repository persists roster data in Postgres.
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

// ---- users ----

// GetUserByUserID returns a user by login id, nil when absent.
func (r *Repository) GetUserByUserID(ctx context.Context, userID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, password_hash, role FROM users WHERE user_id = $1
	`, userID)
	var u model.User
	if err := row.Scan(&u.ID, &u.UserID, &u.PasswordHash, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a login account.
func (r *Repository) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, user_id, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.UserID, u.PasswordHash, u.Role)
	return u, err
}

// UpdateUserPassword replaces a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}

// DeleteUser removes a login account.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// ---- students ----

// CreateStudent inserts a student.
func (r *Repository) CreateStudent(ctx context.Context, s model.Student) (model.Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, grade, category, place, parent, phone, class_assigned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.Name, s.Grade, s.Category, s.Place, s.Parent, s.Phone, nullable(s.ClassAssigned))
	return s, err
}

// UpdateStudent rewrites a student's editable fields.
func (r *Repository) UpdateStudent(ctx context.Context, s model.Student) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET name = $2, grade = $3, category = $4, place = $5, parent = $6, phone = $7
		WHERE id = $1
	`, s.ID, s.Name, s.Grade, s.Category, s.Place, s.Parent, s.Phone)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetStudent returns a student by id, nil when absent.
func (r *Repository) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, grade, category, place, parent, phone, class_assigned
		FROM students WHERE id = $1
	`, id)
	return scanStudent(row)
}

// ListStudents returns all students ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, grade, category, place, parent, phone, class_assigned
		FROM students ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

// DeleteStudent removes a student row.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

// SetStudentClass points a student at a class; empty classID clears it.
func (r *Repository) SetStudentClass(ctx context.Context, studentID, classID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students SET class_assigned = $2 WHERE id = $1
	`, studentID, nullable(classID))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*model.Student, error) {
	var s model.Student
	var class sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &s.Grade, &s.Category, &s.Place, &s.Parent, &s.Phone, &class); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.ClassAssigned = class.String
	return &s, nil
}

// ---- teachers ----

// CreateTeacher inserts a teacher.
func (r *Repository) CreateTeacher(ctx context.Context, t model.Teacher) (model.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teachers (id, name, phone, user_id, class_assigned)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Phone, t.UserID, nullable(t.ClassAssigned))
	return t, err
}

// UpdateTeacher rewrites name and phone.
func (r *Repository) UpdateTeacher(ctx context.Context, t model.Teacher) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET name = $2, phone = $3 WHERE id = $1
	`, t.ID, t.Name, t.Phone)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetTeacher returns a teacher by id, nil when absent.
func (r *Repository) GetTeacher(ctx context.Context, id string) (*model.Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, user_id, class_assigned FROM teachers WHERE id = $1
	`, id)
	return scanTeacher(row)
}

// GetTeacherByUser returns the teacher owning the given user account.
func (r *Repository) GetTeacherByUser(ctx context.Context, userID string) (*model.Teacher, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, user_id, class_assigned FROM teachers WHERE user_id = $1
	`, userID)
	return scanTeacher(row)
}

// ListTeachers returns all teachers ordered by name.
func (r *Repository) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, user_id, class_assigned FROM teachers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

// DeleteTeacher removes a teacher row.
func (r *Repository) DeleteTeacher(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	return err
}

// SetTeacherClass points a teacher at a class; empty classID clears it.
func (r *Repository) SetTeacherClass(ctx context.Context, teacherID, classID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET class_assigned = $2 WHERE id = $1
	`, teacherID, nullable(classID))
	return err
}

func scanTeacher(row rowScanner) (*model.Teacher, error) {
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

// ---- classes ----

// CreateClass inserts a class.
func (r *Repository) CreateClass(ctx context.Context, c model.Class) (model.Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (id, name, category, teacher_id)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.Category, nullable(c.TeacherID))
	return c, err
}

// GetClass returns a class with its membership set, nil when absent.
func (r *Repository) GetClass(ctx context.Context, id string) (*model.Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, teacher_id FROM classes WHERE id = $1
	`, id)
	var c model.Class
	var teacher sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.TeacherID = teacher.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM class_students WHERE class_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		c.StudentIDs = append(c.StudentIDs, sid)
	}
	return &c, rows.Err()
}

// GetClassByName returns a class header by its unique name, nil when absent.
func (r *Repository) GetClassByName(ctx context.Context, name string) (*model.Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, teacher_id FROM classes WHERE name = $1
	`, name)
	var c model.Class
	var teacher sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.TeacherID = teacher.String
	return &c, nil
}

// ListClasses returns all class headers ordered by name.
func (r *Repository) ListClasses(ctx context.Context) ([]model.Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, teacher_id FROM classes ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Class
	for rows.Next() {
		var c model.Class
		var teacher sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &teacher); err != nil {
			return nil, err
		}
		c.TeacherID = teacher.String
		res = append(res, c)
	}
	return res, rows.Err()
}

// DeleteClass removes a class and its membership rows. Student and teacher
// back-references are left as-is, matching the original system.
func (r *Repository) DeleteClass(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_students WHERE class_id = $1`, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	return err
}

// SetClassTeacher points a class at a teacher; empty teacherID clears it.
func (r *Repository) SetClassTeacher(ctx context.Context, classID, teacherID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE classes SET teacher_id = $2 WHERE id = $1
	`, classID, nullable(teacherID))
	return err
}

// AddClassStudent appends a student to the membership set, idempotently.
func (r *Repository) AddClassStudent(ctx context.Context, classID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO class_students (class_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, student_id) DO NOTHING
	`, classID, studentID)
	return err
}

// RemoveClassStudent drops a student from the membership set.
func (r *Repository) RemoveClassStudent(ctx context.Context, classID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM class_students WHERE class_id = $1 AND student_id = $2
	`, classID, studentID)
	return err
}

// ---- volunteers ----

// CreateVolunteer inserts a volunteer.
func (r *Repository) CreateVolunteer(ctx context.Context, v model.Volunteer) (model.Volunteer, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO volunteers (id, name, phone) VALUES ($1, $2, $3)
	`, v.ID, v.Name, v.Phone)
	return v, err
}

// UpdateVolunteer rewrites name and phone.
func (r *Repository) UpdateVolunteer(ctx context.Context, v model.Volunteer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE volunteers SET name = $2, phone = $3 WHERE id = $1
	`, v.ID, v.Name, v.Phone)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetVolunteer returns a volunteer by id, nil when absent.
func (r *Repository) GetVolunteer(ctx context.Context, id string) (*model.Volunteer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, phone FROM volunteers WHERE id = $1`, id)
	var v model.Volunteer
	if err := row.Scan(&v.ID, &v.Name, &v.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// ListVolunteers returns all volunteers ordered by name.
func (r *Repository) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, phone FROM volunteers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Volunteer
	for rows.Next() {
		var v model.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Phone); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// DeleteVolunteer removes a volunteer row.
func (r *Repository) DeleteVolunteer(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM volunteers WHERE id = $1`, id)
	return err
}

// ---- dashboard reads ----

// AttendanceTotals counts all-time present/absent rows per student for a class.
func (r *Repository) AttendanceTotals(ctx context.Context, classID string) (map[string]StatusCounts, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id,
		       COUNT(*) FILTER (WHERE status = 'present'),
		       COUNT(*) FILTER (WHERE status = 'absent')
		FROM attendance
		WHERE class_id = $1
		GROUP BY student_id
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[string]StatusCounts)
	for rows.Next() {
		var sid string
		var c StatusCounts
		if err := rows.Scan(&sid, &c.Present, &c.Absent); err != nil {
			return nil, err
		}
		res[sid] = c
	}
	return res, rows.Err()
}

// StatusCounts is a present/absent tally.
type StatusCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
