package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type performanceProvider interface {
	StudentPerformance(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentPerformance, bool, error)
	Rollup(ctx context.Context, scope models.Scope) (*dto.RollupView, bool, error)
	CourseEfficiency(ctx context.Context) ([]dto.RollupView, bool, error)
	AtRisk(ctx context.Context, scope models.Scope) ([]dto.AtRiskStudent, bool, error)
}

type studentDocumentLister interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.IssuedDocument, error)
}

type teacherAllocationLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectAllocation, error)
}

type classLister interface {
	List(ctx context.Context, courseID string) ([]models.ClassSectionDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSectionDetail, error)
}

type enrollmentCounter interface {
	CountByStatus(ctx context.Context) (map[models.EnrollmentStatus]int, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Performance performanceProvider
	Documents   studentDocumentLister
	Allocations teacherAllocationLister
	Classes     classLister
	Students    enrollmentCounter
	Logger      *zap.Logger
}

// DashboardService composes the landing page of each role.
type DashboardService struct {
	performance performanceProvider
	documents   studentDocumentLister
	allocations teacherAllocationLister
	classes     classLister
	students    enrollmentCounter
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		performance: params.Performance,
		documents:   params.Documents,
		allocations: params.Allocations,
		classes:     params.Classes,
		students:    params.Students,
		logger:      logger,
	}
}

// Aluno returns the student's own performance and issued documents.
func (s *DashboardService) Aluno(ctx context.Context, actor *models.JWTClaims) (*dto.AlunoDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user is not linked to a student")
	}
	perf, _, err := s.performance.StudentPerformance(ctx, actor.StudentID, actor)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListForStudent(ctx, actor.StudentID)
	if err != nil {
		return nil, err
	}
	return &dto.AlunoDashboard{Performance: *perf, Documents: docs}, nil
}

// Professor returns the teacher's allocations with a rollup per class and the students at risk in them.
func (s *DashboardService) Professor(ctx context.Context, actor *models.JWTClaims) (*dto.ProfessorDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user is not linked to a teacher")
	}
	allocations, err := s.allocations.ListByTeacher(ctx, actor.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}
	classes, err := s.classes.ListByTeacher(ctx, actor.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	result := &dto.ProfessorDashboard{
		Allocations: allocations,
		Classes:     make([]dto.ClassOverview, 0, len(classes)),
		AtRisk:      make([]dto.AtRiskStudent, 0),
	}
	seen := make(map[string]struct{})
	for _, class := range classes {
		scope := models.Scope{Kind: models.ScopeClass, ID: class.ID}
		rollup, _, err := s.performance.Rollup(ctx, scope)
		if err != nil {
			return nil, err
		}
		atRisk, _, err := s.performance.AtRisk(ctx, scope)
		if err != nil {
			return nil, err
		}
		result.Classes = append(result.Classes, dto.ClassOverview{Class: class, Rollup: *rollup, AtRiskCount: len(atRisk)})
		for _, student := range atRisk {
			if _, ok := seen[student.StudentID]; ok {
				continue
			}
			seen[student.StudentID] = struct{}{}
			result.AtRisk = append(result.AtRisk, student)
		}
	}
	sort.SliceStable(result.AtRisk, func(i, j int) bool {
		return result.AtRisk[i].StudentName < result.AtRisk[j].StudentName
	})
	return result, nil
}

// Secretaria returns enrollment counts by status and the occupancy of every class.
func (s *DashboardService) Secretaria(ctx context.Context) (*dto.SecretariaDashboard, error) {
	counts, err := s.students.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	classes, err := s.classes.List(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	result := &dto.SecretariaDashboard{
		StudentsByStatus: counts,
		Classes:          make([]dto.ClassOccupancy, 0, len(classes)),
	}
	for _, n := range counts {
		result.TotalStudents += n
	}
	for _, class := range classes {
		result.Classes = append(result.Classes, dto.ClassOccupancy{
			ClassID:        class.ID,
			Code:           class.Code,
			CourseName:     class.CourseName,
			Capacity:       class.Capacity,
			EnrolledCount:  class.EnrolledCount,
			AvailableSeats: class.AvailableSeats(),
		})
	}
	return result, nil
}

// Coordenacao returns the institution KPIs, the efficiency of each course and the students at risk.
func (s *DashboardService) Coordenacao(ctx context.Context) (*dto.CoordenacaoDashboard, error) {
	institution := models.Scope{Kind: models.ScopeInstitution}
	rollup, _, err := s.performance.Rollup(ctx, institution)
	if err != nil {
		return nil, err
	}
	courses, _, err := s.performance.CourseEfficiency(ctx)
	if err != nil {
		return nil, err
	}
	atRisk, _, err := s.performance.AtRisk(ctx, institution)
	if err != nil {
		return nil, err
	}
	return &dto.CoordenacaoDashboard{
		Institution: *rollup,
		Courses:     courses,
		AtRiskCount: len(atRisk),
		AtRisk:      atRisk,
	}, nil
}
