package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/internal/performance"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

// PerformanceGenerationKey versions every cached aggregate. Record writes bump it, so an
// aggregate computed from a read that raced with a write lands under a generation nobody reads.
const PerformanceGenerationKey = "perf:gen"

const (
	ReasonLowGrade      = "LOW_GRADE"
	ReasonLowAttendance = "LOW_ATTENDANCE"

	institutionName = "Instituição"
)

type recordReader interface {
	ListByScope(ctx context.Context, filter models.StudentRecordFilter) ([]models.StudentRecord, error)
	ScopeExists(ctx context.Context, scope models.Scope) (bool, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassSectionDetail, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, activeOnly bool) ([]models.Course, error)
}

// PerformanceServiceConfig tunes evaluation.
type PerformanceServiceConfig struct {
	Thresholds performance.Thresholds
	CacheTTL   time.Duration
}

// PerformanceServiceParams groups constructor dependencies.
type PerformanceServiceParams struct {
	Records  recordReader
	Students studentFinder
	Classes  classFinder
	Courses  courseReader
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   PerformanceServiceConfig
}

// PerformanceService reads student records by scope and turns them into evaluations and rollups.
type PerformanceService struct {
	records    recordReader
	students   studentFinder
	classes    classFinder
	courses    courseReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	classifier performance.Classifier
	cacheTTL   time.Duration
}

// NewPerformanceService validates the thresholds and builds the service.
func NewPerformanceService(params PerformanceServiceParams) (*PerformanceService, error) {
	thresholds := params.Config.Thresholds
	if thresholds == (performance.Thresholds{}) {
		thresholds = performance.DefaultThresholds()
	}
	classifier, err := performance.NewClassifier(thresholds)
	if err != nil {
		return nil, fmt.Errorf("performance thresholds: %w", err)
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{
		records:    params.Records,
		students:   params.Students,
		classes:    params.Classes,
		courses:    params.Courses,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		classifier: classifier,
		cacheTTL:   params.Config.CacheTTL,
	}, nil
}

// Classifier exposes the configured classifier.
func (s *PerformanceService) Classifier() performance.Classifier {
	return s.classifier
}

// StudentPerformance evaluates one student overall, per period and per subject.
func (s *PerformanceService) StudentPerformance(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentPerformance, bool, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, false, err
	}
	key := "student:" + studentID
	var cached dto.StudentPerformance
	cacheKey, hit := s.tryCache(ctx, key, &cached)
	if hit {
		return &cached, true, nil
	}

	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: models.Scope{Kind: models.ScopeStudent, ID: studentID}})
	if err != nil {
		return nil, false, err
	}

	result := &dto.StudentPerformance{
		Student:  *student,
		Overall:  s.evaluate(performance.Aggregate(records)),
		Periods:  s.periods(records),
		Subjects: s.rows(records),
	}
	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// ClassPerformance lists every student with records in the class, the class aggregate and its rollup.
func (s *PerformanceService) ClassPerformance(ctx context.Context, classID string) (*dto.ClassPerformance, bool, error) {
	key := "class:" + classID
	var cached dto.ClassPerformance
	cacheKey, hit := s.tryCache(ctx, key, &cached)
	if hit {
		return &cached, true, nil
	}

	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, false, err
	}
	scope := models.Scope{Kind: models.ScopeClass, ID: classID}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: scope})
	if err != nil {
		return nil, false, err
	}

	result := &dto.ClassPerformance{
		Class:    *class,
		Overall:  s.classifier.Evaluate(performance.Aggregate(records)),
		Rollup:   dto.NewRollupView(scope, class.Name, s.classifier.Rollup(records)),
		Students: s.studentRows(records),
	}
	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// Rollup computes the efficiency report of a class, a course or the whole institution.
func (s *PerformanceService) Rollup(ctx context.Context, scope models.Scope) (*dto.RollupView, bool, error) {
	key := "rollup:" + scope.Key()
	var cached dto.RollupView
	cacheKey, hit := s.tryCache(ctx, key, &cached)
	if hit {
		return &cached, true, nil
	}

	name, err := s.scopeName(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: scope})
	if err != nil {
		return nil, false, err
	}
	view := dto.NewRollupView(scope, name, s.classifier.Rollup(records))
	s.persistCache(ctx, cacheKey, view)
	return &view, false, nil
}

// CourseEfficiency rolls up every active course from a single institution-wide read.
func (s *PerformanceService) CourseEfficiency(ctx context.Context) ([]dto.RollupView, bool, error) {
	const key = "courses"
	var cached []dto.RollupView
	cacheKey, hit := s.tryCache(ctx, key, &cached)
	if hit {
		return cached, true, nil
	}

	courses, err := s.courses.List(ctx, true)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: models.Scope{Kind: models.ScopeInstitution}})
	if err != nil {
		return nil, false, err
	}
	byCourse := performance.Partition(records, performance.ByCourse)

	views := make([]dto.RollupView, 0, len(courses))
	for _, course := range courses {
		scope := models.Scope{Kind: models.ScopeCourse, ID: course.ID}
		views = append(views, dto.NewRollupView(scope, course.Name, s.classifier.Rollup(byCourse[course.ID])))
	}
	s.persistCache(ctx, cacheKey, views)
	return views, false, nil
}

// AtRisk lists the students of a scope whose averages fall below the recovery floor or the attendance floor.
func (s *PerformanceService) AtRisk(ctx context.Context, scope models.Scope) ([]dto.AtRiskStudent, bool, error) {
	key := "at-risk:" + scope.Key()
	var cached []dto.AtRiskStudent
	cacheKey, hit := s.tryCache(ctx, key, &cached)
	if hit {
		return cached, true, nil
	}

	if err := s.ensureScope(ctx, scope); err != nil {
		return nil, false, err
	}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: scope})
	if err != nil {
		return nil, false, err
	}
	result := s.atRisk(records)
	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// Records lists labelled records of a scope. Students only ever see their own records and
// professors only the records of their own allocations.
func (s *PerformanceService) Records(ctx context.Context, filter models.StudentRecordFilter, actor *models.JWTClaims) ([]dto.RecordRow, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter.TeacherID = ""
	switch actor.Role {
	case models.RoleAluno:
		if filter.Kind != models.ScopeStudent || filter.ID != actor.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only list their own records")
		}
	case models.RoleProfessor:
		if actor.TeacherID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "user is not linked to a teacher")
		}
		filter.TeacherID = actor.TeacherID
	}
	if err := s.ensureScope(ctx, filter.Scope); err != nil {
		return nil, err
	}
	records, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.rows(records), nil
}

// ReportCard builds the boletim of a student grouped by period.
func (s *PerformanceService) ReportCard(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.ReportCard, error) {
	if err := authorizeStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	return s.BuildReportCard(ctx, studentID)
}

// BuildReportCard assembles a report card without access checks, for issuing documents.
func (s *PerformanceService) BuildReportCard(ctx context.Context, studentID string) (*dto.ReportCard, error) {
	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	records, err := s.load(ctx, models.StudentRecordFilter{Scope: models.Scope{Kind: models.ScopeStudent, ID: studentID}})
	if err != nil {
		return nil, err
	}

	byPeriod := performance.Partition(records, performance.ByPeriod)
	card := &dto.ReportCard{
		Student: *student,
		Periods: make([]dto.ReportCardPeriod, 0, len(byPeriod)),
		Overall: s.classifier.Evaluate(performance.Aggregate(records)),
	}
	for _, period := range performance.SortedKeys(byPeriod) {
		rs := byPeriod[period]
		card.Periods = append(card.Periods, dto.ReportCardPeriod{
			Period:  period,
			Rows:    s.rows(rs),
			Summary: s.classifier.Evaluate(performance.Aggregate(rs)),
		})
	}
	return card, nil
}

// Invalidate retires every cached aggregate by bumping the generation, then drops the previous
// generation's entries. Failures are logged; entries then expire with their TTL.
func (s *PerformanceService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	gen, err := s.cache.Bump(ctx, PerformanceGenerationKey)
	if err != nil {
		s.logger.Warn("performance cache invalidation failed", zap.Error(err))
		return
	}
	if err := s.cache.Invalidate(ctx, generationPattern(gen-1)); err != nil {
		s.logger.Warn("stale performance cache cleanup failed", zap.Int64("generation", gen-1), zap.Error(err))
	}
}

func generationPattern(gen int64) string {
	return fmt.Sprintf("perf:g%d:*", gen)
}

func (s *PerformanceService) load(ctx context.Context, filter models.StudentRecordFilter) ([]models.StudentRecord, error) {
	start := time.Now()
	records, err := s.records.ListByScope(ctx, filter)
	s.metrics.ObserveDBQuery("records_by_"+string(filter.Kind), time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student records")
	}
	return records, nil
}

func (s *PerformanceService) ensureScope(ctx context.Context, scope models.Scope) error {
	exists, err := s.records.ScopeExists(ctx, scope)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, string(scope.Kind)+" not found")
	}
	return nil
}

func (s *PerformanceService) scopeName(ctx context.Context, scope models.Scope) (string, error) {
	switch scope.Kind {
	case models.ScopeInstitution:
		return institutionName, nil
	case models.ScopeClass:
		class, err := s.findClass(ctx, scope.ID)
		if err != nil {
			return "", err
		}
		return class.Name, nil
	case models.ScopeCourse:
		course, err := s.courses.FindByID(ctx, scope.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		return course.Name, nil
	case models.ScopeStudent:
		student, err := s.findStudent(ctx, scope.ID)
		if err != nil {
			return "", err
		}
		return student.FullName, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unknown scope")
}

func (s *PerformanceService) findStudent(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *PerformanceService) findClass(ctx context.Context, id string) (*models.ClassSectionDetail, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// evaluate classifies a student summary and counts the outcome.
func (s *PerformanceService) evaluate(summary performance.Summary) performance.Evaluation {
	eval := s.classifier.Evaluate(summary)
	s.metrics.RecordClassification(string(eval.Status))
	return eval
}

func (s *PerformanceService) periods(records []models.StudentRecord) []dto.PeriodPerformance {
	groups := performance.GroupBy(records, performance.ByPeriod)
	out := make([]dto.PeriodPerformance, 0, len(groups))
	for _, period := range performance.SortedKeys(groups) {
		out = append(out, dto.PeriodPerformance{Period: period, Evaluation: s.classifier.Evaluate(groups[period])})
	}
	return out
}

func (s *PerformanceService) studentRows(records []models.StudentRecord) []dto.StudentRow {
	byStudent := performance.Partition(records, performance.ByStudent)
	rows := make([]dto.StudentRow, 0, len(byStudent))
	for id, rs := range byStudent {
		rows = append(rows, dto.StudentRow{
			StudentID:   id,
			StudentName: rs[0].StudentName,
			Evaluation:  s.evaluate(performance.Aggregate(rs)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StudentName == rows[j].StudentName {
			return rows[i].StudentID < rows[j].StudentID
		}
		return rows[i].StudentName < rows[j].StudentName
	})
	return rows
}

func (s *PerformanceService) atRisk(records []models.StudentRecord) []dto.AtRiskStudent {
	byStudent := performance.Partition(records, performance.ByStudent)
	t := s.classifier.Thresholds
	result := make([]dto.AtRiskStudent, 0)
	for id, rs := range byStudent {
		summary := performance.Aggregate(rs)
		if !s.classifier.AtRisk(summary.AverageGrade, summary.AverageAttendance) {
			continue
		}
		var reasons []string
		if summary.AverageGrade != nil && *summary.AverageGrade < t.RecoveryFloor {
			reasons = append(reasons, ReasonLowGrade)
		}
		if summary.AverageAttendance != nil && *summary.AverageAttendance < t.AttendanceFloor {
			reasons = append(reasons, ReasonLowAttendance)
		}
		rounded := summary.Rounded()
		result = append(result, dto.AtRiskStudent{
			StudentID:         id,
			StudentName:       rs[0].StudentName,
			AverageGrade:      rounded.AverageGrade,
			AverageAttendance: rounded.AverageAttendance,
			Reasons:           reasons,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StudentName == result[j].StudentName {
			return result[i].StudentID < result[j].StudentID
		}
		return result[i].StudentName < result[j].StudentName
	})
	return result
}

// rows labels each record. A stored approval status wins over the computed label.
func (s *PerformanceService) rows(records []models.StudentRecord) []dto.RecordRow {
	rows := make([]dto.RecordRow, 0, len(records))
	for _, r := range records {
		row := dto.RecordRow{
			RecordID:      r.ID,
			StudentID:     r.StudentID,
			StudentName:   r.StudentName,
			SubjectName:   r.SubjectName,
			Period:        r.Period,
			FinalGrade:    performance.Round1Ptr(r.FinalGrade),
			FinalAverage:  performance.Round1Ptr(r.FinalAverage),
			AttendancePct: performance.Round1Ptr(r.AttendancePct),
			Absences:      r.Absences,
		}
		if !performance.Valid(r) {
			row.Invalid = true
			row.Label = "Dados inválidos"
			rows = append(rows, row)
			continue
		}
		row.Status = s.classifier.Classify(r.Grade(), r.AttendancePct)
		row.Label = row.Status.Label()
		if r.ApprovalStatus != nil && *r.ApprovalStatus != "" {
			row.Label = *r.ApprovalStatus
		}
		rows = append(rows, row)
	}
	return rows
}

// tryCache looks key up under the current generation and returns the versioned key a fresh
// result must be stored under. The generation is read before the record store, so a write that
// lands meanwhile retires the entry. A failing cache is a miss with nothing to store.
func (s *PerformanceService) tryCache(ctx context.Context, key string, dest interface{}) (string, bool) {
	if !s.cache.Enabled() {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, PerformanceGenerationKey)
	if err != nil {
		s.logger.Warn("performance cache generation read failed", zap.Error(err))
		return "", false
	}
	versioned := strings.TrimSuffix(generationPattern(gen), "*") + key
	hit, err := s.cache.Get(ctx, versioned, dest)
	if err != nil {
		s.logger.Warn("performance cache read failed", zap.String("key", versioned), zap.Error(err))
		return "", false
	}
	return versioned, hit
}

func (s *PerformanceService) persistCache(ctx context.Context, key string, value interface{}) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("performance cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// authorizeStudentAccess lets students read only their own data; every other role may read any student.
func authorizeStudentAccess(actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleAluno && actor.StudentID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only access their own records")
	}
	return nil
}
