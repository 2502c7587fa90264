package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type fakeRecordSrv struct {
	record  *models.StudentRecord
	err     error
	lastReq models.UpsertStudentRecordRequest
	called  bool
}

func (f *fakeRecordSrv) Upsert(_ context.Context, req models.UpsertStudentRecordRequest, _ *models.JWTClaims) (*models.StudentRecord, error) {
	f.called = true
	f.lastReq = req
	return f.record, f.err
}

func TestRecordHandlerUpsert(t *testing.T) {
	srv := &fakeRecordSrv{record: &models.StudentRecord{ID: "rec-1", StudentID: "stu-ana", FinalGrade: f64(8)}}
	handler := NewRecordHandler(srv)

	body := map[string]interface{}{
		"student_id":     "stu-ana",
		"allocation_id":  "alloc-1",
		"final_grade":    8,
		"attendance_pct": 90,
		"period":         "2025/1",
	}
	c, rec := newTestContext(http.MethodPut, "/records", body)
	withClaims(c, professor)

	handler.Upsert(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alloc-1", srv.lastReq.AllocationID)
	require.NotNil(t, srv.lastReq.AttendancePct)
	assert.Equal(t, 90.0, *srv.lastReq.AttendancePct)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	assert.Equal(t, "rec-1", envelope.Data["id"])
}

func TestRecordHandlerInvalidRecordData(t *testing.T) {
	srv := &fakeRecordSrv{err: appErrors.Clone(appErrors.ErrInvalidRecord, "final_grade out of range")}
	handler := NewRecordHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/records", map[string]interface{}{"final_grade": 11})
	withClaims(c, secretaria)

	handler.Upsert(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_RECORD_DATA", envelope.Error.Code)
}

func TestRecordHandlerMalformedJSON(t *testing.T) {
	srv := &fakeRecordSrv{}
	handler := NewRecordHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/records", "not an object")
	withClaims(c, secretaria)

	handler.Upsert(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, srv.called)
}
