package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/response"
)

type performanceService interface {
	StudentPerformance(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentPerformance, bool, error)
	ClassPerformance(ctx context.Context, classID string) (*dto.ClassPerformance, bool, error)
	Rollup(ctx context.Context, scope models.Scope) (*dto.RollupView, bool, error)
	CourseEfficiency(ctx context.Context) ([]dto.RollupView, bool, error)
	AtRisk(ctx context.Context, scope models.Scope) ([]dto.AtRiskStudent, bool, error)
	Records(ctx context.Context, filter models.StudentRecordFilter, actor *models.JWTClaims) ([]dto.RecordRow, error)
	ReportCard(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.ReportCard, error)
}

// PerformanceHandler exposes aggregates, classifications and rollups.
type PerformanceHandler struct {
	service performanceService
}

// NewPerformanceHandler constructs the handler.
func NewPerformanceHandler(service performanceService) *PerformanceHandler {
	return &PerformanceHandler{service: service}
}

// Student godoc
// @Summary Student performance
// @Description Overall, per-period and per-subject evaluation of a student. Averages are null when nothing was recorded.
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/performance [get]
func (h *PerformanceHandler) Student(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.StudentPerformance(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, cacheHit)
}

// ReportCard godoc
// @Summary Student report card
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/report-card [get]
func (h *PerformanceHandler) ReportCard(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	card, err := h.service.ReportCard(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, card, false)
}

// Class godoc
// @Summary Class performance
// @Description Per-student evaluation of a class with its aggregate and rollup
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/performance [get]
func (h *PerformanceHandler) Class(c *gin.Context) {
	start := time.Now()
	result, cacheHit, err := h.service.ClassPerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, cacheHit)
}

// ClassRollup godoc
// @Summary Class rollup
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/rollup [get]
func (h *PerformanceHandler) ClassRollup(c *gin.Context) {
	h.rollup(c, models.Scope{Kind: models.ScopeClass, ID: c.Param("id")})
}

// CourseRollup godoc
// @Summary Course rollup
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/rollup [get]
func (h *PerformanceHandler) CourseRollup(c *gin.Context) {
	h.rollup(c, models.Scope{Kind: models.ScopeCourse, ID: c.Param("id")})
}

// InstitutionRollup godoc
// @Summary Institution rollup
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /institution/rollup [get]
func (h *PerformanceHandler) InstitutionRollup(c *gin.Context) {
	h.rollup(c, models.Scope{Kind: models.ScopeInstitution})
}

// CourseEfficiency godoc
// @Summary Efficiency of every active course
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /efficiency/courses [get]
func (h *PerformanceHandler) CourseEfficiency(c *gin.Context) {
	start := time.Now()
	views, cacheHit, err := h.service.CourseEfficiency(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, views, cacheHit)
}

// AtRisk godoc
// @Summary Students at risk
// @Description Students whose average grade is below the recovery floor or whose attendance is below the minimum
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Restrict to a class"
// @Param course_id query string false "Restrict to a course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /at-risk [get]
func (h *PerformanceHandler) AtRisk(c *gin.Context) {
	scope, err := scopeFromQuery(c, models.ScopeInstitution)
	if err != nil {
		response.Error(c, err)
		return
	}
	if scope.Kind == models.ScopeStudent {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at-risk listing accepts class_id or course_id"))
		return
	}
	start := time.Now()
	students, cacheHit, err := h.service.AtRisk(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, students, cacheHit)
}

// Records godoc
// @Summary List student records
// @Description Labelled records of exactly one scope. Professors only see records of their own allocations.
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student scope"
// @Param class_id query string false "Class scope"
// @Param course_id query string false "Course scope"
// @Param period query string false "Enrollment period"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records [get]
func (h *PerformanceHandler) Records(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	scope, err := scopeFromQuery(c, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.StudentRecordFilter{Scope: scope, Period: strings.TrimSpace(c.Query("period"))}
	start := time.Now()
	rows, err := h.service.Records(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, rows, false)
}

func (h *PerformanceHandler) rollup(c *gin.Context, scope models.Scope) {
	start := time.Now()
	view, cacheHit, err := h.service.Rollup(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, view, cacheHit)
}

// scopeFromQuery picks the single scope named by student_id, class_id or course_id. With none
// given, fallback is used; an empty fallback makes the scope mandatory.
func scopeFromQuery(c *gin.Context, fallback models.ScopeKind) (models.Scope, error) {
	candidates := []struct {
		param string
		kind  models.ScopeKind
	}{
		{"student_id", models.ScopeStudent},
		{"class_id", models.ScopeClass},
		{"course_id", models.ScopeCourse},
	}
	var scope models.Scope
	found := 0
	for _, candidate := range candidates {
		if id := strings.TrimSpace(c.Query(candidate.param)); id != "" {
			scope = models.Scope{Kind: candidate.kind, ID: id}
			found++
		}
	}
	switch {
	case found > 1:
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "only one of student_id, class_id or course_id may be given")
	case found == 0 && fallback == "":
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "one of student_id, class_id or course_id is required")
	case found == 0:
		return models.Scope{Kind: fallback}, nil
	}
	return scope, nil
}

