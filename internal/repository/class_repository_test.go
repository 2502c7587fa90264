package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classColumns = []string{"id", "code", "name", "course_id", "year", "semester", "shift", "capacity", "created_at", "course_name", "enrolled_count"}

func TestClassRepositoryFindByIDDerivesEnrolledCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM students s WHERE s.current_class_id = c.id AND s.enrollment_status = 'ACTIVE') AS enrolled_count")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(classColumns).AddRow("c1", "DS-2025A", "Desenvolvimento de Sistemas A", "co1", 2025, 1, "Manhã", 30, time.Now(), "Desenvolvimento de Sistemas", 32))

	class, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 32, class.EnrolledCount)
	assert.Equal(t, 0, class.AvailableSeats())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM class_sections c").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := NewClassRepository(db).FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClassRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.course_id = $1 ORDER BY c.year DESC, c.semester DESC, c.code")).
		WithArgs("co1").
		WillReturnRows(sqlmock.NewRows(classColumns).
			AddRow("c1", "DS-A", "A", "co1", 2025, 1, "", 30, time.Now(), "DS", 10).
			AddRow("c2", "DS-B", "B", "co1", 2025, 1, "", 30, time.Now(), "DS", 0))

	classes, err := NewClassRepository(db).List(context.Background(), "co1")
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 20, classes[0].AvailableSeats())
	assert.NoError(t, mock.ExpectationsWereMet())
}
