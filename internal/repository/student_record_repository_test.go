package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/models"
)

var recordColumns = []string{"id", "student_id", "allocation_id", "final_grade", "final_average", "attendance_pct", "absences",
	"approval_status", "period", "created_at", "updated_at", "student_name", "class_id", "course_id", "subject_id", "subject_name", "teacher_id"}

func TestStudentRecordRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(recordColumns).
		AddRow("r1", "s1", "a1", []byte("8.00"), []byte("7.50"), []byte("92.50"), 3, nil, "2025/1", now, now, "Ana", "c1", "co1", "sub1", "Matemática", "t1").
		AddRow("r2", "s2", "a1", nil, nil, nil, nil, nil, "2025/1", now, now, "Bruno", "c1", "co1", "sub1", "Matemática", "t1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.class_id = $1 AND r.period = $2 ORDER BY r.period, sub.name, st.full_name")).
		WithArgs("c1", "2025/1").
		WillReturnRows(rows)

	records, err := repo.ListByScope(context.Background(), models.StudentRecordFilter{
		Scope:  models.Scope{Kind: models.ScopeClass, ID: "c1"},
		Period: "2025/1",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].FinalAverage)
	assert.Equal(t, 7.5, *records[0].FinalAverage)
	assert.Equal(t, 92.5, *records[0].AttendancePct)
	assert.Equal(t, 3, *records[0].Absences)
	assert.Nil(t, records[1].FinalGrade)
	assert.Nil(t, records[1].AttendancePct)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRecordRepositoryListInstitutionHasNoWhere(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN subjects sub ON sub.id = a.subject_id ORDER BY r.period")).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.ListByScope(context.Background(), models.StudentRecordFilter{Scope: models.Scope{Kind: models.ScopeInstitution}})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRecordRepositoryListRejectsUnknownScope(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()

	_, err := NewStudentRecordRepository(db).ListByScope(context.Background(), models.StudentRecordFilter{Scope: models.Scope{Kind: "school"}})
	assert.Error(t, err)
}

func TestStudentRecordRepositoryScopeExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ScopeExists(context.Background(), models.Scope{Kind: models.ScopeCourse, ID: "missing"})
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ScopeExists(context.Background(), models.Scope{Kind: models.ScopeInstitution})
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRecordRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRecordRepository(db)

	grade := 8.5
	record := &models.StudentRecord{StudentID: "s1", AllocationID: "a1", FinalGrade: &grade, Period: "2025/1"}
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id, allocation_id) DO UPDATE SET")).
		WithArgs(sqlmock.AnyArg(), "s1", "a1", &grade, nil, nil, nil, nil, "2025/1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("existing-id", created, time.Now()))

	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.Equal(t, "existing-id", record.ID)
	assert.Equal(t, created, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
