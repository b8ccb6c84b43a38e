package roster

import (
	"context"
	"fmt"
	"testing"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/model"
)

// fakeStore is an in-memory Store for exercising the reconciliation rules.
type fakeStore struct {
	nextID     int
	users      map[string]model.User
	students   map[string]model.Student
	teachers   map[string]model.Teacher
	classes    map[string]model.Class
	members    map[string][]string
	volunteers map[string]model.Volunteer
	totals     map[string]map[string]StatusCounts
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]model.User),
		students:   make(map[string]model.Student),
		teachers:   make(map[string]model.Teacher),
		classes:    make(map[string]model.Class),
		members:    make(map[string][]string),
		volunteers: make(map[string]model.Volunteer),
		totals:     make(map[string]map[string]StatusCounts),
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) GetUserByUserID(_ context.Context, userID string) (*model.User, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = f.id()
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CreateStudent(_ context.Context, s model.Student) (model.Student, error) {
	if s.ID == "" {
		s.ID = f.id()
	}
	f.students[s.ID] = s
	return s, nil
}

func (f *fakeStore) UpdateStudent(_ context.Context, s model.Student) error {
	f.students[s.ID] = s
	return nil
}

func (f *fakeStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) ListStudents(_ context.Context) ([]model.Student, error) {
	var res []model.Student
	for _, s := range f.students {
		res = append(res, s)
	}
	return res, nil
}

func (f *fakeStore) DeleteStudent(_ context.Context, id string) error {
	delete(f.students, id)
	return nil
}

func (f *fakeStore) SetStudentClass(_ context.Context, studentID, classID string) error {
	s := f.students[studentID]
	s.ClassAssigned = classID
	f.students[studentID] = s
	return nil
}

func (f *fakeStore) CreateTeacher(_ context.Context, t model.Teacher) (model.Teacher, error) {
	if t.ID == "" {
		t.ID = f.id()
	}
	f.teachers[t.ID] = t
	return t, nil
}

func (f *fakeStore) GetTeacherByUser(_ context.Context, userID string) (*model.Teacher, error) {
	for _, t := range f.teachers {
		if t.UserID == userID {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateTeacher(_ context.Context, t model.Teacher) error {
	f.teachers[t.ID] = t
	return nil
}

func (f *fakeStore) GetTeacher(_ context.Context, id string) (*model.Teacher, error) {
	t, ok := f.teachers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) ListTeachers(_ context.Context) ([]model.Teacher, error) {
	var res []model.Teacher
	for _, t := range f.teachers {
		res = append(res, t)
	}
	return res, nil
}

func (f *fakeStore) DeleteTeacher(_ context.Context, id string) error {
	delete(f.teachers, id)
	return nil
}

func (f *fakeStore) SetTeacherClass(_ context.Context, teacherID, classID string) error {
	t := f.teachers[teacherID]
	t.ClassAssigned = classID
	f.teachers[teacherID] = t
	return nil
}

func (f *fakeStore) CreateClass(_ context.Context, c model.Class) (model.Class, error) {
	if c.ID == "" {
		c.ID = f.id()
	}
	f.classes[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetClass(_ context.Context, id string) (*model.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, nil
	}
	c.StudentIDs = append([]string(nil), f.members[id]...)
	return &c, nil
}

func (f *fakeStore) GetClassByName(_ context.Context, name string) (*model.Class, error) {
	for _, c := range f.classes {
		if c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListClasses(_ context.Context) ([]model.Class, error) {
	var res []model.Class
	for _, c := range f.classes {
		res = append(res, c)
	}
	return res, nil
}

func (f *fakeStore) DeleteClass(_ context.Context, id string) error {
	delete(f.classes, id)
	delete(f.members, id)
	return nil
}

func (f *fakeStore) SetClassTeacher(_ context.Context, classID, teacherID string) error {
	c := f.classes[classID]
	c.TeacherID = teacherID
	f.classes[classID] = c
	return nil
}

func (f *fakeStore) AddClassStudent(_ context.Context, classID, studentID string) error {
	for _, sid := range f.members[classID] {
		if sid == studentID {
			return nil
		}
	}
	f.members[classID] = append(f.members[classID], studentID)
	return nil
}

func (f *fakeStore) RemoveClassStudent(_ context.Context, classID, studentID string) error {
	out := f.members[classID][:0]
	for _, sid := range f.members[classID] {
		if sid != studentID {
			out = append(out, sid)
		}
	}
	f.members[classID] = out
	return nil
}

func (f *fakeStore) CreateVolunteer(_ context.Context, v model.Volunteer) (model.Volunteer, error) {
	if v.ID == "" {
		v.ID = f.id()
	}
	f.volunteers[v.ID] = v
	return v, nil
}

func (f *fakeStore) UpdateVolunteer(_ context.Context, v model.Volunteer) error {
	f.volunteers[v.ID] = v
	return nil
}

func (f *fakeStore) GetVolunteer(_ context.Context, id string) (*model.Volunteer, error) {
	v, ok := f.volunteers[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeStore) ListVolunteers(_ context.Context) ([]model.Volunteer, error) {
	var res []model.Volunteer
	for _, v := range f.volunteers {
		res = append(res, v)
	}
	return res, nil
}

func (f *fakeStore) DeleteVolunteer(_ context.Context, id string) error {
	delete(f.volunteers, id)
	return nil
}

func (f *fakeStore) AttendanceTotals(_ context.Context, classID string) (map[string]StatusCounts, error) {
	res := f.totals[classID]
	if res == nil {
		res = map[string]StatusCounts{}
	}
	return res, nil
}

// checkLinks asserts the bidirectional class/teacher/student invariants.
func checkLinks(t *testing.T, f *fakeStore) {
	t.Helper()
	for id, c := range f.classes {
		if c.TeacherID != "" {
			teacher, ok := f.teachers[c.TeacherID]
			if !ok || teacher.ClassAssigned != id {
				t.Fatalf("class %s links teacher %s but reverse link is %q", id, c.TeacherID, teacher.ClassAssigned)
			}
		}
		for _, sid := range f.members[id] {
			student, ok := f.students[sid]
			if !ok || student.ClassAssigned != id {
				t.Fatalf("class %s holds student %s but reverse link is %q", id, sid, student.ClassAssigned)
			}
		}
	}
	for id, teacher := range f.teachers {
		if teacher.ClassAssigned != "" {
			if c, ok := f.classes[teacher.ClassAssigned]; !ok || c.TeacherID != id {
				t.Fatalf("teacher %s links class %s but reverse link is %q", id, teacher.ClassAssigned, c.TeacherID)
			}
		}
	}
}

func seedClass(t *testing.T, f *fakeStore, name string, category model.Category) model.Class {
	t.Helper()
	c, err := f.CreateClass(context.Background(), model.Class{Name: name, Category: category})
	if err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return c
}

func seedStudent(t *testing.T, f *fakeStore, name string, grade int) model.Student {
	t.Helper()
	s, err := f.CreateStudent(context.Background(), model.Student{
		Name:     name,
		Grade:    grade,
		Category: model.CategoryForGrade(grade),
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return s
}

func TestAllocateStudentsMatchingCategory(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	x := seedStudent(t, f, "X", 1)

	report, err := svc.AllocateStudents(ctx, class.ID, []string{x.ID})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if report.Added != 1 || len(report.Skipped) != 0 {
		t.Fatalf("expected added=1 skipped=0, got added=%d skipped=%d", report.Added, len(report.Skipped))
	}
	if f.students[x.ID].ClassAssigned != class.ID {
		t.Fatalf("student not linked to class")
	}
	checkLinks(t, f)
}

func TestAllocateStudentsCategoryMismatch(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	y := seedStudent(t, f, "Y", 9) // Inter

	report, err := svc.AllocateStudents(ctx, class.ID, []string{y.ID})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if report.Added != 0 {
		t.Fatalf("expected added=0, got %d", report.Added)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Code != SkipCategoryMismatch {
		t.Fatalf("expected one category_mismatch skip, got %+v", report.Skipped)
	}
	if report.Skipped[0].Reason != "Category mismatch" {
		t.Fatalf("unexpected skip reason %q", report.Skipped[0].Reason)
	}
	if len(f.members[class.ID]) != 0 {
		t.Fatalf("mismatched student must not join the class")
	}
}

func TestAllocateStudentsSkipCodes(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	x := seedStudent(t, f, "X", 1)
	if _, err := svc.AllocateStudents(ctx, class.ID, []string{x.ID}); err != nil {
		t.Fatalf("first allocate: %v", err)
	}

	report, err := svc.AllocateStudents(ctx, class.ID, []string{x.ID, "ghost"})
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if report.Added != 0 || len(report.Skipped) != 2 {
		t.Fatalf("expected 2 skips, got %+v", report)
	}
	codes := map[string]SkipReason{}
	for _, sk := range report.Skipped {
		codes[sk.StudentID] = sk.Code
	}
	if codes[x.ID] != SkipAlreadyAssigned {
		t.Fatalf("expected already_assigned for %s, got %s", x.ID, codes[x.ID])
	}
	if codes["ghost"] != SkipNotFound {
		t.Fatalf("expected not_found for ghost, got %s", codes["ghost"])
	}
	if len(f.members[class.ID]) != 1 {
		t.Fatalf("membership must stay at 1, got %d", len(f.members[class.ID]))
	}
}

func TestAllocateStudentsMoveBetweenClasses(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	classA := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	classB := seedClass(t, f, "Beginner B", model.CategoryBeginner)
	x := seedStudent(t, f, "X", 2)

	if _, err := svc.AllocateStudents(ctx, classA.ID, []string{x.ID}); err != nil {
		t.Fatalf("allocate A: %v", err)
	}
	report, err := svc.AllocateStudents(ctx, classB.ID, []string{x.ID})
	if err != nil {
		t.Fatalf("allocate B: %v", err)
	}
	if report.Added != 1 {
		t.Fatalf("move should count as added, got %+v", report)
	}
	if len(f.members[classA.ID]) != 0 {
		t.Fatalf("old membership must be cleaned up")
	}
	if f.students[x.ID].ClassAssigned != classB.ID {
		t.Fatalf("student must point at new class")
	}
	checkLinks(t, f)
}

func TestAllocateStudentsClassNotFound(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)

	_, err := svc.AllocateStudents(context.Background(), "missing", []string{"s1"})
	if apperr.From(err).Code != apperr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestAssignTeacherMovesLink(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	classA := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	classB := seedClass(t, f, "Beginner B", model.CategoryBeginner)
	teacher, _ := f.CreateTeacher(ctx, model.Teacher{Name: "T", UserID: "u1"})

	if err := svc.AssignTeacher(ctx, teacher.ID, classA.ID); err != nil {
		t.Fatalf("assign A: %v", err)
	}
	checkLinks(t, f)

	if err := svc.AssignTeacher(ctx, teacher.ID, classB.ID); err != nil {
		t.Fatalf("assign B: %v", err)
	}
	if f.classes[classA.ID].TeacherID != "" {
		t.Fatalf("old class must drop the teacher link")
	}
	if f.classes[classB.ID].TeacherID != teacher.ID {
		t.Fatalf("new class must hold the teacher link")
	}
	if f.teachers[teacher.ID].ClassAssigned != classB.ID {
		t.Fatalf("teacher must point at new class")
	}
	checkLinks(t, f)
}

func TestAssignTeacherEvictsPreviousTeacher(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Junior A", model.CategoryJunior)
	t1, _ := f.CreateTeacher(ctx, model.Teacher{Name: "T1", UserID: "u1"})
	t2, _ := f.CreateTeacher(ctx, model.Teacher{Name: "T2", UserID: "u2"})

	if err := svc.AssignTeacher(ctx, t1.ID, class.ID); err != nil {
		t.Fatalf("assign t1: %v", err)
	}
	if err := svc.AssignTeacher(ctx, t2.ID, class.ID); err != nil {
		t.Fatalf("assign t2: %v", err)
	}
	if f.teachers[t1.ID].ClassAssigned != "" {
		t.Fatalf("evicted teacher must lose the class link")
	}
	if f.classes[class.ID].TeacherID != t2.ID {
		t.Fatalf("class must hold the new teacher")
	}
	checkLinks(t, f)
}

func TestAssignTeacherNotFound(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()
	class := seedClass(t, f, "Beginner A", model.CategoryBeginner)

	if err := svc.AssignTeacher(ctx, "ghost", class.ID); apperr.From(err).Code != apperr.CodeNotFound {
		t.Fatalf("expected not_found for missing teacher, got %v", err)
	}
	if err := svc.AssignTeacher(ctx, "ghost", "missing"); apperr.From(err).Code != apperr.CodeNotFound {
		t.Fatalf("expected not_found for missing class, got %v", err)
	}
}

func TestRemoveStudentFromClass(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Primary A", model.CategoryPrimary)
	s := seedStudent(t, f, "S", 4)
	if _, err := svc.AllocateStudents(ctx, class.ID, []string{s.ID}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := svc.RemoveStudentFromClass(ctx, class.ID, s.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(f.members[class.ID]) != 0 {
		t.Fatalf("membership must be empty")
	}
	if f.students[s.ID].ClassAssigned != "" {
		t.Fatalf("student link must be cleared")
	}

	// Removal never validates membership.
	if err := svc.RemoveStudentFromClass(ctx, class.ID, s.ID); err != nil {
		t.Fatalf("second remove should succeed: %v", err)
	}
}

func TestRemoveTeacherFromClass(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Inter A", model.CategoryInter)
	teacher, _ := f.CreateTeacher(ctx, model.Teacher{Name: "T", UserID: "u1"})
	if err := svc.AssignTeacher(ctx, teacher.ID, class.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := svc.RemoveTeacherFromClass(ctx, class.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.classes[class.ID].TeacherID != "" || f.teachers[teacher.ID].ClassAssigned != "" {
		t.Fatalf("both sides must be cleared")
	}
}

func TestCreateTeacherCreatesUser(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	teacher, err := svc.CreateTeacher(ctx, TeacherInput{Name: "T", UserID: "t-login", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	user, ok := f.users[teacher.UserID]
	if !ok {
		t.Fatalf("owned user must exist")
	}
	if user.Role != model.RoleTeacher {
		t.Fatalf("owned user must have teacher role, got %s", user.Role)
	}
	if user.PasswordHash == "secret" {
		t.Fatalf("password must be hashed")
	}

	if _, err := svc.CreateTeacher(ctx, TeacherInput{Name: "T2", UserID: "t-login", Password: "x"}); apperr.From(err).Code != apperr.CodeConflict {
		t.Fatalf("duplicate userID must conflict, got %v", err)
	}
}

func TestDeleteTeacherCascadesUser(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	teacher, err := svc.CreateTeacher(ctx, TeacherInput{Name: "T", UserID: "t-login", Password: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteTeacher(ctx, teacher.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.users) != 0 || len(f.teachers) != 0 {
		t.Fatalf("teacher delete must cascade to the owned user")
	}
}

func TestCreateClassDuplicateName(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	if _, err := svc.CreateClass(ctx, "Beginner A", model.CategoryBeginner); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateClass(ctx, "Beginner A", model.CategoryBeginner); apperr.From(err).Code != apperr.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.CreateClass(ctx, "Odd", model.Category("Senior")); apperr.From(err).Code != apperr.CodeValidation {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}
}

func TestStudentCategoryDerivation(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	student, err := svc.CreateStudent(ctx, StudentInput{Name: "S", Grade: 7})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if student.Category != model.CategoryJunior {
		t.Fatalf("grade 7 must be Junior, got %s", student.Category)
	}

	updated, err := svc.UpdateStudent(ctx, student.ID, StudentInput{Name: "S", Grade: 10})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != model.CategoryInter {
		t.Fatalf("grade 10 must be Inter, got %s", updated.Category)
	}

	if _, err := svc.CreateStudent(ctx, StudentInput{Name: "Bad", Grade: 13}); apperr.From(err).Code != apperr.CodeValidation {
		t.Fatalf("grade 13 must be rejected, got %v", err)
	}
}

func TestGetAssignedClass(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Beginner A", model.CategoryBeginner)
	s := seedStudent(t, f, "S", 1)
	teacher, _ := f.CreateTeacher(ctx, model.Teacher{Name: "T", UserID: "acct-1"})
	if err := svc.AssignTeacher(ctx, teacher.ID, class.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.AllocateStudents(ctx, class.ID, []string{s.ID}); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	assigned, err := svc.GetAssignedClass(ctx, "acct-1")
	if err != nil {
		t.Fatalf("assigned class: %v", err)
	}
	if assigned.ClassName != "Beginner A" || len(assigned.Students) != 1 {
		t.Fatalf("unexpected assigned class %+v", assigned)
	}

	if _, err := svc.GetAssignedClass(ctx, "acct-unknown"); apperr.From(err).Code != apperr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestGetClassDetailSkipsDanglingMembers(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	class := seedClass(t, f, "Primary A", model.CategoryPrimary)
	s := seedStudent(t, f, "S", 3)
	if _, err := svc.AllocateStudents(ctx, class.ID, []string{s.ID}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	f.totals[class.ID] = map[string]StatusCounts{s.ID: {Present: 3, Absent: 1}}

	// Direct delete bypasses the remove-from-class path, leaving a
	// dangling membership id.
	if err := svc.DeleteStudent(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	detail, err := svc.GetClassDetail(ctx, class.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.Students) != 0 {
		t.Fatalf("dangling member must be skipped, got %+v", detail.Students)
	}
}

func TestCategoryOverviewGroups(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	seedClass(t, f, "Beginner A", model.CategoryBeginner)
	seedClass(t, f, "Inter A", model.CategoryInter)

	grouped, err := svc.CategoryOverview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(grouped) != len(model.Categories) {
		t.Fatalf("all four bands must be present, got %d", len(grouped))
	}
	if len(grouped[model.CategoryBeginner]) != 1 || len(grouped[model.CategoryPrimary]) != 0 {
		t.Fatalf("unexpected grouping %+v", grouped)
	}
}
