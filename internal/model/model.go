package model

import "time"

// Role distinguishes the two kinds of login accounts.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// Category is the age band a class belongs to; students may only be
// allocated to a class of their own category.
type Category string

const (
	CategoryBeginner Category = "Beginner"
	CategoryPrimary  Category = "Primary"
	CategoryJunior   Category = "Junior"
	CategoryInter    Category = "Inter"
)

// Categories lists all bands in display order.
var Categories = []Category{CategoryBeginner, CategoryPrimary, CategoryJunior, CategoryInter}

const (
	// GradeLKG and GradeUKG sit below grade 1 on the grade scale.
	GradeLKG = -1
	GradeUKG = 0
	GradeMax = 12
)

// ValidGrade reports whether g is on the LKG..12 scale.
func ValidGrade(g int) bool {
	return g >= GradeLKG && g <= GradeMax
}

// CategoryForGrade derives the category band from a grade.
// LKG..2 Beginner, 3..5 Primary, 6..8 Junior, 9..12 Inter.
func CategoryForGrade(g int) Category {
	switch {
	case g <= 2:
		return CategoryBeginner
	case g <= 5:
		return CategoryPrimary
	case g <= 8:
		return CategoryJunior
	default:
		return CategoryInter
	}
}

// Status is a daily attendance status.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether the status is a supported value.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// User is a login account. Teachers own exactly one; admins are standalone.
type User struct {
	ID           string `json:"id"`
	UserID       string `json:"userID"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// Student belongs to at most one class, matched by category.
type Student struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Grade         int      `json:"grade"`
	Category      Category `json:"category"`
	Place         string   `json:"place"`
	Parent        string   `json:"parent"`
	Phone         string   `json:"phone"`
	ClassAssigned string   `json:"classAssigned,omitempty"`
}

// Teacher owns one User account and teaches at most one class.
type Teacher struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	UserID        string `json:"userId"`
	ClassAssigned string `json:"classAssigned,omitempty"`
}

// Class groups students of one category under at most one teacher.
// StudentIDs duplicates Student.ClassAssigned; the roster service keeps
// the two sides consistent.
type Class struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	TeacherID  string   `json:"teacherId,omitempty"`
	StudentIDs []string `json:"studentIds"`
}

// Volunteer has no class relationship.
type Volunteer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Attendance is one student's record for one calendar day.
type Attendance struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	ClassID     string    `json:"classId"`
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	SubmittedBy string    `json:"submittedBy,omitempty"`
}

// EntityAttendance is a teacher's or volunteer's record for one day.
type EntityAttendance struct {
	ID       string    `json:"id"`
	EntityID string    `json:"entityId"`
	Date     time.Time `json:"date"`
	Status   Status    `json:"status"`
}

// TimeWindow is the daily wall-clock interval during which teachers may
// submit attendance. Times are "HH:mm" strings, singleton row.
type TimeWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Day truncates t to its UTC calendar day. All attendance uniqueness
// checks and stored dates use this normalization.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
