package roster

import (
	"context"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/auth"
	"github.com/MMagesh23/AMS/internal/model"
)

// Store is the persistence surface the roster service needs. Implemented
// by *Repository; tests substitute an in-memory fake.
type Store interface {
	GetUserByUserID(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateStudent(ctx context.Context, s model.Student) (model.Student, error)
	UpdateStudent(ctx context.Context, s model.Student) error
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	SetStudentClass(ctx context.Context, studentID, classID string) error

	CreateTeacher(ctx context.Context, t model.Teacher) (model.Teacher, error)
	GetTeacherByUser(ctx context.Context, userID string) (*model.Teacher, error)
	UpdateTeacher(ctx context.Context, t model.Teacher) error
	GetTeacher(ctx context.Context, id string) (*model.Teacher, error)
	ListTeachers(ctx context.Context) ([]model.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error
	SetTeacherClass(ctx context.Context, teacherID, classID string) error

	CreateClass(ctx context.Context, c model.Class) (model.Class, error)
	GetClass(ctx context.Context, id string) (*model.Class, error)
	GetClassByName(ctx context.Context, name string) (*model.Class, error)
	ListClasses(ctx context.Context) ([]model.Class, error)
	DeleteClass(ctx context.Context, id string) error
	SetClassTeacher(ctx context.Context, classID, teacherID string) error
	AddClassStudent(ctx context.Context, classID, studentID string) error
	RemoveClassStudent(ctx context.Context, classID, studentID string) error

	CreateVolunteer(ctx context.Context, v model.Volunteer) (model.Volunteer, error)
	UpdateVolunteer(ctx context.Context, v model.Volunteer) error
	GetVolunteer(ctx context.Context, id string) (*model.Volunteer, error)
	ListVolunteers(ctx context.Context) ([]model.Volunteer, error)
	DeleteVolunteer(ctx context.Context, id string) error

	AttendanceTotals(ctx context.Context, classID string) (map[string]StatusCounts, error)
}

// Service maintains the Student/Teacher/Class cross-references. The
// multi-step link updates here are deliberately not transactional; a crash
// mid-sequence can leave one side stale, matching the original system.
type Service struct {
	store Store
}

// NewService creates a roster service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// StudentInput carries the editable student fields.
type StudentInput struct {
	Name   string `json:"name" binding:"required"`
	Grade  int    `json:"grade"`
	Place  string `json:"place"`
	Parent string `json:"parent"`
	Phone  string `json:"phone"`
}

// CreateStudent adds a student, deriving category from grade.
func (s *Service) CreateStudent(ctx context.Context, in StudentInput) (model.Student, error) {
	if !model.ValidGrade(in.Grade) {
		return model.Student{}, apperr.Validation("grade must be between %d and %d", model.GradeLKG, model.GradeMax)
	}
	return s.store.CreateStudent(ctx, model.Student{
		Name:     in.Name,
		Grade:    in.Grade,
		Category: model.CategoryForGrade(in.Grade),
		Place:    in.Place,
		Parent:   in.Parent,
		Phone:    in.Phone,
	})
}

// UpdateStudent edits a student, re-deriving category. The class link is
// untouched even when the new grade moves the student to another band.
func (s *Service) UpdateStudent(ctx context.Context, id string, in StudentInput) (model.Student, error) {
	if !model.ValidGrade(in.Grade) {
		return model.Student{}, apperr.Validation("grade must be between %d and %d", model.GradeLKG, model.GradeMax)
	}
	existing, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	if existing == nil {
		return model.Student{}, apperr.NotFound("student not found")
	}
	updated := model.Student{
		ID:            id,
		Name:          in.Name,
		Grade:         in.Grade,
		Category:      model.CategoryForGrade(in.Grade),
		Place:         in.Place,
		Parent:        in.Parent,
		Phone:         in.Phone,
		ClassAssigned: existing.ClassAssigned,
	}
	if err := s.store.UpdateStudent(ctx, updated); err != nil {
		return model.Student{}, err
	}
	return updated, nil
}

// DeleteStudent removes the student row only. Class membership and
// attendance rows referencing the student are not cleaned up; this
// preserved gap can leave dangling ids (use RemoveStudentFromClass first).
func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	return s.store.DeleteStudent(ctx, id)
}

// GetStudent returns one student.
func (s *Service) GetStudent(ctx context.Context, id string) (model.Student, error) {
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return model.Student{}, err
	}
	if st == nil {
		return model.Student{}, apperr.NotFound("student not found")
	}
	return *st, nil
}

// ListStudents returns all students.
func (s *Service) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.store.ListStudents(ctx)
}

// TeacherInput carries the fields for creating a teacher and its account.
type TeacherInput struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	UserID   string `json:"userID" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateTeacher creates the owned User first, then the Teacher.
func (s *Service) CreateTeacher(ctx context.Context, in TeacherInput) (model.Teacher, error) {
	existing, err := s.store.GetUserByUserID(ctx, in.UserID)
	if err != nil {
		return model.Teacher{}, err
	}
	if existing != nil {
		return model.Teacher{}, apperr.Conflict("userID already exists")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.Teacher{}, err
	}
	user, err := s.store.CreateUser(ctx, model.User{
		UserID:       in.UserID,
		PasswordHash: hash,
		Role:         model.RoleTeacher,
	})
	if err != nil {
		return model.Teacher{}, err
	}
	return s.store.CreateTeacher(ctx, model.Teacher{
		Name:   in.Name,
		Phone:  in.Phone,
		UserID: user.ID,
	})
}

// UpdateTeacher edits name and phone.
func (s *Service) UpdateTeacher(ctx context.Context, id, name, phone string) (model.Teacher, error) {
	existing, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return model.Teacher{}, err
	}
	if existing == nil {
		return model.Teacher{}, apperr.NotFound("teacher not found")
	}
	existing.Name = name
	existing.Phone = phone
	if err := s.store.UpdateTeacher(ctx, *existing); err != nil {
		return model.Teacher{}, err
	}
	return *existing, nil
}

// DeleteTeacher removes the teacher and its owned user account.
func (s *Service) DeleteTeacher(ctx context.Context, id string) error {
	teacher, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return err
	}
	if teacher == nil {
		return apperr.NotFound("teacher not found")
	}
	if err := s.store.DeleteUser(ctx, teacher.UserID); err != nil {
		return err
	}
	return s.store.DeleteTeacher(ctx, id)
}

// ListTeachers returns all teachers.
func (s *Service) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	return s.store.ListTeachers(ctx)
}

// CreateClass adds a class with a unique name.
func (s *Service) CreateClass(ctx context.Context, name string, category model.Category) (model.Class, error) {
	valid := false
	for _, c := range model.Categories {
		if category == c {
			valid = true
			break
		}
	}
	if !valid {
		return model.Class{}, apperr.Validation("unknown category %q", category)
	}
	existing, err := s.store.GetClassByName(ctx, name)
	if err != nil {
		return model.Class{}, err
	}
	if existing != nil {
		return model.Class{}, apperr.Conflict("class name already exists")
	}
	return s.store.CreateClass(ctx, model.Class{Name: name, Category: category})
}

// GetClass returns one class with its membership.
func (s *Service) GetClass(ctx context.Context, id string) (model.Class, error) {
	c, err := s.store.GetClass(ctx, id)
	if err != nil {
		return model.Class{}, err
	}
	if c == nil {
		return model.Class{}, apperr.NotFound("class not found")
	}
	return *c, nil
}

// ListClasses returns all class headers.
func (s *Service) ListClasses(ctx context.Context) ([]model.Class, error) {
	return s.store.ListClasses(ctx)
}

// DeleteClass removes the class. Teacher and student back-references are
// not cleared (preserved gap; use the remove endpoints first).
func (s *Service) DeleteClass(ctx context.Context, id string) error {
	return s.store.DeleteClass(ctx, id)
}

// AssignTeacher establishes the 1:1 teacher-class link, evicting stale
// links on both sides first.
func (s *Service) AssignTeacher(ctx context.Context, teacherID, classID string) error {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class == nil {
		return apperr.NotFound("class not found")
	}
	teacher, err := s.store.GetTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	if teacher == nil {
		return apperr.NotFound("teacher not found")
	}

	// Unlink the teacher's previous class.
	if teacher.ClassAssigned != "" && teacher.ClassAssigned != classID {
		if err := s.store.SetClassTeacher(ctx, teacher.ClassAssigned, ""); err != nil {
			return err
		}
	}
	// Unlink the class's previous teacher.
	if class.TeacherID != "" && class.TeacherID != teacherID {
		if err := s.store.SetTeacherClass(ctx, class.TeacherID, ""); err != nil {
			return err
		}
	}

	if err := s.store.SetClassTeacher(ctx, classID, teacherID); err != nil {
		return err
	}
	return s.store.SetTeacherClass(ctx, teacherID, classID)
}

// SkipReason codes why a student was not allocated.
type SkipReason string

const (
	SkipNotFound         SkipReason = "not_found"
	SkipCategoryMismatch SkipReason = "category_mismatch"
	SkipAlreadyAssigned  SkipReason = "already_assigned"
)

func (r SkipReason) message() string {
	switch r {
	case SkipNotFound:
		return "Student not found"
	case SkipCategoryMismatch:
		return "Category mismatch"
	default:
		return "Already assigned"
	}
}

// SkippedStudent explains one skipped allocation.
type SkippedStudent struct {
	StudentID string     `json:"studentId"`
	Name      string     `json:"name,omitempty"`
	Code      SkipReason `json:"code"`
	Reason    string     `json:"reason"`
}

// AllocationReport is the result of a bulk allocation.
type AllocationReport struct {
	Added   int              `json:"added"`
	Skipped []SkippedStudent `json:"skipped"`
}

// AllocateStudents links each student to the class, continuing past
// per-student failures. Category must match; moves from another class
// clean up the old membership first.
func (s *Service) AllocateStudents(ctx context.Context, classID string, studentIDs []string) (AllocationReport, error) {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return AllocationReport{}, err
	}
	if class == nil {
		return AllocationReport{}, apperr.NotFound("class not found")
	}

	report := AllocationReport{Skipped: []SkippedStudent{}}
	for _, id := range studentIDs {
		student, err := s.store.GetStudent(ctx, id)
		if err != nil {
			return report, err
		}
		if student == nil {
			report.Skipped = append(report.Skipped, skipped(id, "", SkipNotFound))
			continue
		}
		if student.Category != class.Category {
			report.Skipped = append(report.Skipped, skipped(id, student.Name, SkipCategoryMismatch))
			continue
		}
		if student.ClassAssigned == classID {
			report.Skipped = append(report.Skipped, skipped(id, student.Name, SkipAlreadyAssigned))
			continue
		}
		// Moving from another class: drop the old membership first so no
		// dangling id is left behind.
		if student.ClassAssigned != "" {
			if err := s.store.RemoveClassStudent(ctx, student.ClassAssigned, id); err != nil {
				return report, err
			}
		}
		if err := s.store.SetStudentClass(ctx, id, classID); err != nil {
			return report, err
		}
		if err := s.store.AddClassStudent(ctx, classID, id); err != nil {
			return report, err
		}
		report.Added++
	}
	return report, nil
}

func skipped(id, name string, code SkipReason) SkippedStudent {
	return SkippedStudent{StudentID: id, Name: name, Code: code, Reason: code.message()}
}

// RemoveStudentFromClass drops the membership and clears the student's
// class link. Unconditional: it does not verify prior membership.
func (s *Service) RemoveStudentFromClass(ctx context.Context, classID, studentID string) error {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class == nil {
		return apperr.NotFound("class not found")
	}
	if err := s.store.RemoveClassStudent(ctx, classID, studentID); err != nil {
		return err
	}
	return s.store.SetStudentClass(ctx, studentID, "")
}

// RemoveTeacherFromClass clears both sides of the teacher link.
func (s *Service) RemoveTeacherFromClass(ctx context.Context, classID string) error {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class == nil {
		return apperr.NotFound("class not found")
	}
	if class.TeacherID != "" {
		if err := s.store.SetTeacherClass(ctx, class.TeacherID, ""); err != nil {
			return err
		}
	}
	return s.store.SetClassTeacher(ctx, classID, "")
}

// VolunteerInput carries the editable volunteer fields.
type VolunteerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// CreateVolunteer adds a volunteer.
func (s *Service) CreateVolunteer(ctx context.Context, in VolunteerInput) (model.Volunteer, error) {
	return s.store.CreateVolunteer(ctx, model.Volunteer{Name: in.Name, Phone: in.Phone})
}

// UpdateVolunteer edits a volunteer.
func (s *Service) UpdateVolunteer(ctx context.Context, id string, in VolunteerInput) (model.Volunteer, error) {
	existing, err := s.store.GetVolunteer(ctx, id)
	if err != nil {
		return model.Volunteer{}, err
	}
	if existing == nil {
		return model.Volunteer{}, apperr.NotFound("volunteer not found")
	}
	existing.Name = in.Name
	existing.Phone = in.Phone
	if err := s.store.UpdateVolunteer(ctx, *existing); err != nil {
		return model.Volunteer{}, err
	}
	return *existing, nil
}

// DeleteVolunteer removes a volunteer.
func (s *Service) DeleteVolunteer(ctx context.Context, id string) error {
	return s.store.DeleteVolunteer(ctx, id)
}

// ListVolunteers returns all volunteers.
func (s *Service) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	return s.store.ListVolunteers(ctx)
}

// AssignedClass is the teacher-facing view of their own class.
type AssignedClass struct {
	ClassID   string          `json:"classId"`
	ClassName string          `json:"className"`
	Students  []model.Student `json:"students"`
}

// GetAssignedClass resolves a teacher by login account and returns the
// class roster they teach.
func (s *Service) GetAssignedClass(ctx context.Context, userAccountID string) (AssignedClass, error) {
	teacher, err := s.store.GetTeacherByUser(ctx, userAccountID)
	if err != nil {
		return AssignedClass{}, err
	}
	if teacher == nil || teacher.ClassAssigned == "" {
		return AssignedClass{}, apperr.NotFound("no class assigned")
	}
	class, err := s.store.GetClass(ctx, teacher.ClassAssigned)
	if err != nil {
		return AssignedClass{}, err
	}
	if class == nil {
		// Dangling link left by a class delete.
		return AssignedClass{}, apperr.NotFound("no class assigned")
	}
	out := AssignedClass{ClassID: class.ID, ClassName: class.Name, Students: []model.Student{}}
	for _, sid := range class.StudentIDs {
		student, err := s.store.GetStudent(ctx, sid)
		if err != nil {
			return AssignedClass{}, err
		}
		if student != nil {
			out.Students = append(out.Students, *student)
		}
	}
	return out, nil
}

// ClassSummary is one class in the category overview.
type ClassSummary struct {
	ClassID     string `json:"classId"`
	Name        string `json:"name"`
	TeacherName string `json:"teacher,omitempty"`
}

// CategoryOverview groups classes under the four category bands.
func (s *Service) CategoryOverview(ctx context.Context) (map[model.Category][]ClassSummary, error) {
	classes, err := s.store.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[model.Category][]ClassSummary, len(model.Categories))
	for _, cat := range model.Categories {
		grouped[cat] = []ClassSummary{}
	}
	for _, c := range classes {
		if _, ok := grouped[c.Category]; !ok {
			continue
		}
		summary := ClassSummary{ClassID: c.ID, Name: c.Name}
		if c.TeacherID != "" {
			teacher, err := s.store.GetTeacher(ctx, c.TeacherID)
			if err != nil {
				return nil, err
			}
			if teacher != nil {
				summary.TeacherName = teacher.Name
			}
		}
		grouped[c.Category] = append(grouped[c.Category], summary)
	}
	return grouped, nil
}

// StudentTally is one roster line in the class detail view.
type StudentTally struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
}

// ClassDetail is the dashboard drill-down for one class.
type ClassDetail struct {
	ClassName   string         `json:"className"`
	TeacherName string         `json:"teacher"`
	Students    []StudentTally `json:"students"`
}

// GetClassDetail returns the roster with all-time present/absent tallies.
func (s *Service) GetClassDetail(ctx context.Context, classID string) (ClassDetail, error) {
	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		return ClassDetail{}, err
	}
	if class == nil {
		return ClassDetail{}, apperr.NotFound("class not found")
	}

	detail := ClassDetail{ClassName: class.Name, TeacherName: "None", Students: []StudentTally{}}
	if class.TeacherID != "" {
		teacher, err := s.store.GetTeacher(ctx, class.TeacherID)
		if err != nil {
			return ClassDetail{}, err
		}
		if teacher != nil {
			detail.TeacherName = teacher.Name
		}
	}

	totals, err := s.store.AttendanceTotals(ctx, classID)
	if err != nil {
		return ClassDetail{}, err
	}
	for _, sid := range class.StudentIDs {
		student, err := s.store.GetStudent(ctx, sid)
		if err != nil {
			return ClassDetail{}, err
		}
		if student == nil {
			// Dangling membership left by a direct student delete.
			continue
		}
		counts := totals[sid]
		detail.Students = append(detail.Students, StudentTally{
			StudentID: sid,
			Name:      student.Name,
			Present:   counts.Present,
			Absent:    counts.Absent,
		})
	}
	return detail, nil
}
