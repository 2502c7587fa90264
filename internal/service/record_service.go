package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type recordWriter interface {
	Upsert(ctx context.Context, record *models.StudentRecord) error
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
}

type allocationFinder interface {
	FindByID(ctx context.Context, id string) (*models.SubjectAllocation, error)
}

type aggregateInvalidator interface {
	Invalidate(ctx context.Context)
}

// RecordService validates and stores student records, then drops cached aggregates.
type RecordService struct {
	records     recordWriter
	allocations allocationFinder
	students    studentFinder
	aggregates  aggregateInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(records recordWriter, allocations allocationFinder, students studentFinder, aggregates aggregateInvalidator, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(jsonFieldName)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{
		records:     records,
		allocations: allocations,
		students:    students,
		aggregates:  aggregates,
		validator:   validate,
		logger:      logger,
	}
}

// Upsert creates or replaces the record of a student in an allocation. Professors may only
// write records for their own allocations.
func (s *RecordService) Upsert(ctx context.Context, req models.UpsertStudentRecordRequest, actor *models.JWTClaims) (*models.StudentRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.AllocationID = strings.TrimSpace(req.AllocationID)
	req.Period = strings.TrimSpace(req.Period)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	allocation, err := s.allocations.FindByID(ctx, req.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	switch actor.Role {
	case models.RoleProfessor:
		if actor.TeacherID == "" || allocation.TeacherID != actor.TeacherID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "allocation belongs to another teacher")
		}
	case models.RoleSecretaria, models.RoleCoordenacao:
	default:
		return nil, appErrors.ErrForbidden
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record := &models.StudentRecord{
		StudentID:      req.StudentID,
		AllocationID:   req.AllocationID,
		FinalGrade:     req.FinalGrade,
		FinalAverage:   req.FinalAverage,
		AttendancePct:  req.AttendancePct,
		Absences:       req.Absences,
		ApprovalStatus: req.ApprovalStatus,
		Period:         req.Period,
	}
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student record")
	}
	if s.aggregates != nil {
		s.aggregates.Invalidate(ctx)
	}
	s.logger.Info("student record saved",
		zap.String("record_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("allocation_id", record.AllocationID),
		zap.String("user_id", actor.UserID),
	)

	stored, err := s.records.FindByID(ctx, record.ID)
	if err != nil {
		s.logger.Warn("reload saved record failed", zap.String("record_id", record.ID), zap.Error(err))
		return record, nil
	}
	return stored, nil
}

// validate separates missing fields from out-of-range values so callers can tell them apart.
func (s *RecordService) validate(req models.UpsertStudentRecordRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gte", "lte":
			return appErrors.Wrap(err, appErrors.ErrInvalidRecord.Code, appErrors.ErrInvalidRecord.Status,
				fmt.Sprintf("%s out of range", fe.Field()))
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
