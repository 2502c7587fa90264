package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

func f64(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

type stubCacheRepo struct {
	store    map[string][]byte
	counters map[string]int64
	deleted  []string
	getErr   error
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func (s *stubCacheRepo) Counter(_ context.Context, key string) (int64, error) {
	if s.getErr != nil {
		return 0, s.getErr
	}
	return s.counters[key], nil
}

func (s *stubCacheRepo) Increment(_ context.Context, key string) (int64, error) {
	if s.counters == nil {
		s.counters = make(map[string]int64)
	}
	s.counters[key]++
	return s.counters[key], nil
}

// fakeSchool is an in-memory record store with its reference data.
type fakeSchool struct {
	records  []models.StudentRecord
	students map[string]models.StudentDetail
	classes  map[string]models.ClassSectionDetail
	courses  []models.Course
	listErr  error
	reads    int
	// afterList runs once the records of a read have been collected.
	afterList func()
}

func newFakeSchool() *fakeSchool {
	return &fakeSchool{
		students: map[string]models.StudentDetail{},
		classes:  map[string]models.ClassSectionDetail{},
	}
}

func (f *fakeSchool) addStudent(id, name string) {
	f.students[id] = models.StudentDetail{Student: models.Student{ID: id, FullName: name, Registration: "RA-" + id, EnrollmentStatus: models.EnrollmentActive}}
}

func (f *fakeSchool) addRecord(studentID, classID, courseID, period string, grade, attendance *float64) {
	name := f.students[studentID].FullName
	f.records = append(f.records, models.StudentRecord{
		ID:            studentID + "-" + classID + "-" + period + "-" + string(rune('a'+len(f.records))),
		StudentID:     studentID,
		StudentName:   name,
		ClassID:       classID,
		CourseID:      courseID,
		SubjectName:   "Subject " + string(rune('A'+len(f.records))),
		Period:        period,
		FinalGrade:    grade,
		AttendancePct: attendance,
	})
}

func (f *fakeSchool) ListByScope(_ context.Context, filter models.StudentRecordFilter) ([]models.StudentRecord, error) {
	f.reads++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.StudentRecord
	for _, r := range f.records {
		switch filter.Kind {
		case models.ScopeStudent:
			if r.StudentID != filter.ID {
				continue
			}
		case models.ScopeClass:
			if r.ClassID != filter.ID {
				continue
			}
		case models.ScopeCourse:
			if r.CourseID != filter.ID {
				continue
			}
		}
		if filter.Period != "" && r.Period != filter.Period {
			continue
		}
		if filter.TeacherID != "" && r.TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, r)
	}
	if hook := f.afterList; hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeSchool) ScopeExists(_ context.Context, scope models.Scope) (bool, error) {
	switch scope.Kind {
	case models.ScopeStudent:
		_, ok := f.students[scope.ID]
		return ok, nil
	case models.ScopeClass:
		_, ok := f.classes[scope.ID]
		return ok, nil
	case models.ScopeCourse:
		for _, c := range f.courses {
			if c.ID == scope.ID {
				return true, nil
			}
		}
		return false, nil
	}
	return true, nil
}

type fakeStudents struct{ school *fakeSchool }

func (s fakeStudents) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	student, ok := s.school.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (s fakeStudents) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	var out []models.StudentDetail
	for _, student := range s.school.students {
		if filter.ClassID != "" && (student.CurrentClassID == nil || *student.CurrentClassID != filter.ClassID) {
			continue
		}
		if filter.Status != "" && student.EnrollmentStatus != filter.Status {
			continue
		}
		out = append(out, student)
	}
	return out, nil
}

type fakeClasses struct{ school *fakeSchool }

func (c fakeClasses) FindByID(_ context.Context, id string) (*models.ClassSectionDetail, error) {
	class, ok := c.school.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &class, nil
}

type fakeCourses struct{ school *fakeSchool }

func (c fakeCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	for _, course := range c.school.courses {
		if course.ID == id {
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c fakeCourses) List(_ context.Context, _ bool) ([]models.Course, error) {
	return c.school.courses, nil
}

func newTestPerformanceService(school *fakeSchool, cache *CacheService) *PerformanceService {
	svc, err := NewPerformanceService(PerformanceServiceParams{
		Records:  school,
		Students: fakeStudents{school},
		Classes:  fakeClasses{school},
		Courses:  fakeCourses{school},
		Cache:    cache,
	})
	if err != nil {
		panic(err)
	}
	return svc
}

// seededSchool has one course with one class and three students:
// ana approved, bruno in recovery, carla failed on attendance.
func seededSchool() *fakeSchool {
	school := newFakeSchool()
	school.courses = []models.Course{{ID: "course-1", Name: "Técnico em Informática", Active: true}, {ID: "course-2", Name: "Mecatrônica", Active: true}}
	school.classes["class-1"] = models.ClassSectionDetail{ClassSection: models.ClassSection{ID: "class-1", Code: "INF-1A", Name: "Informática 1A", CourseID: "course-1", Capacity: 30}, CourseName: "Técnico em Informática", EnrolledCount: 3}
	school.addStudent("ana", "Ana")
	school.addStudent("bruno", "Bruno")
	school.addStudent("carla", "Carla")
	school.addRecord("ana", "class-1", "course-1", "2025/1", f64(8), f64(90))
	school.addRecord("ana", "class-1", "course-1", "2025/2", f64(7), f64(100))
	school.addRecord("bruno", "class-1", "course-1", "2025/1", f64(6), f64(80))
	school.addRecord("carla", "class-1", "course-1", "2025/1", f64(9), f64(60))
	return school
}


func alunoClaims(studentID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-" + studentID, Role: models.RoleAluno, StudentID: studentID}
}

func staffClaims(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-staff", Role: role}
}
