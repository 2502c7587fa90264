package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type mockRecordWriter struct {
	saved     []models.StudentRecord
	upsertErr error
}

func (m *mockRecordWriter) Upsert(_ context.Context, record *models.StudentRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if record.ID == "" {
		record.ID = "rec-1"
	}
	m.saved = append(m.saved, *record)
	return nil
}

func (m *mockRecordWriter) FindByID(_ context.Context, id string) (*models.StudentRecord, error) {
	for _, r := range m.saved {
		if r.ID == id {
			r.SubjectName = "Lógica de Programação"
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockAllocations map[string]models.SubjectAllocation

func (m mockAllocations) FindByID(_ context.Context, id string) (*models.SubjectAllocation, error) {
	a, ok := m[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

func newTestRecordService() (*RecordService, *mockRecordWriter, *countingInvalidator) {
	school := seededSchool()
	writer := &mockRecordWriter{}
	invalidator := &countingInvalidator{}
	allocations := mockAllocations{"alloc-1": {ID: "alloc-1", ClassID: "class-1", SubjectID: "sub-1", TeacherID: "teacher-1"}}
	return NewRecordService(writer, allocations, fakeStudents{school}, invalidator, nil, nil), writer, invalidator
}

func validRecordRequest() models.UpsertStudentRecordRequest {
	return models.UpsertStudentRecordRequest{
		StudentID:     "ana",
		AllocationID:  "alloc-1",
		FinalGrade:    f64(8.5),
		AttendancePct: f64(92),
		Period:        " 2025/1 ",
	}
}

func TestRecordServiceUpsertByOwningTeacher(t *testing.T) {
	svc, writer, invalidator := newTestRecordService()
	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleProfessor, TeacherID: "teacher-1"}

	record, err := svc.Upsert(context.Background(), validRecordRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, "2025/1", record.Period)
	assert.Equal(t, "Lógica de Programação", record.SubjectName)
	require.Len(t, writer.saved, 1)
	assert.Equal(t, 1, invalidator.calls)
}

func TestRecordServiceRejectsOtherTeacher(t *testing.T) {
	svc, writer, invalidator := newTestRecordService()
	actor := &models.JWTClaims{UserID: "u2", Role: models.RoleProfessor, TeacherID: "teacher-2"}

	_, err := svc.Upsert(context.Background(), validRecordRequest(), actor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, writer.saved)
	assert.Zero(t, invalidator.calls)
}

func TestRecordServiceStaffAndStudents(t *testing.T) {
	svc, _, _ := newTestRecordService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, validRecordRequest(), staffClaims(models.RoleSecretaria))
	require.NoError(t, err)

	_, err = svc.Upsert(ctx, validRecordRequest(), alunoClaims("ana"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Upsert(ctx, validRecordRequest(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestRecordServiceValidation(t *testing.T) {
	svc, writer, _ := newTestRecordService()
	actor := staffClaims(models.RoleCoordenacao)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.UpsertStudentRecordRequest)
		want   *appErrors.Error
		field  string
	}{
		{name: "grade above ten", mutate: func(r *models.UpsertStudentRecordRequest) { r.FinalGrade = f64(10.5) }, want: appErrors.ErrInvalidRecord, field: "final_grade"},
		{name: "negative average", mutate: func(r *models.UpsertStudentRecordRequest) { r.FinalAverage = f64(-1) }, want: appErrors.ErrInvalidRecord, field: "final_average"},
		{name: "attendance above hundred", mutate: func(r *models.UpsertStudentRecordRequest) { r.AttendancePct = f64(100.1) }, want: appErrors.ErrInvalidRecord, field: "attendance_pct"},
		{name: "missing period", mutate: func(r *models.UpsertStudentRecordRequest) { r.Period = "" }, want: appErrors.ErrValidation},
		{name: "blank period", mutate: func(r *models.UpsertStudentRecordRequest) { r.Period = "   " }, want: appErrors.ErrValidation},
		{name: "missing student", mutate: func(r *models.UpsertStudentRecordRequest) { r.StudentID = "" }, want: appErrors.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRecordRequest()
			tc.mutate(&req)
			_, err := svc.Upsert(ctx, req, actor)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			if tc.field != "" {
				assert.Contains(t, appErrors.FromError(err).Message, tc.field)
			}
		})
	}
	assert.Empty(t, writer.saved)
}

func TestRecordServiceBoundaryValuesAccepted(t *testing.T) {
	svc, writer, _ := newTestRecordService()
	req := validRecordRequest()
	req.FinalGrade = f64(0)
	req.FinalAverage = f64(10)
	req.AttendancePct = f64(100)

	_, err := svc.Upsert(context.Background(), req, staffClaims(models.RoleSecretaria))
	require.NoError(t, err)
	assert.Len(t, writer.saved, 1)
}

func TestRecordServiceMissingReferences(t *testing.T) {
	svc, _, _ := newTestRecordService()
	actor := staffClaims(models.RoleSecretaria)

	req := validRecordRequest()
	req.AllocationID = "alloc-9"
	_, err := svc.Upsert(context.Background(), req, actor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	req = validRecordRequest()
	req.StudentID = "ghost"
	_, err = svc.Upsert(context.Background(), req, actor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRecordServiceStoreFailureSkipsInvalidation(t *testing.T) {
	svc, writer, invalidator := newTestRecordService()
	writer.upsertErr = errors.New("deadlock detected")

	_, err := svc.Upsert(context.Background(), validRecordRequest(), staffClaims(models.RoleSecretaria))
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Zero(t, invalidator.calls)
}
