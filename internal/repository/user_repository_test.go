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

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1)")).
		WithArgs("Prof@Senai.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "student_id", "teacher_id", "active", "last_login", "created_at", "updated_at"}).
			AddRow("u1", "prof@senai.test", "hash", "Prof", "PROFESSOR", nil, "t1", true, nil, time.Now(), time.Now()))

	user, err := repo.FindByEmail(context.Background(), "Prof@Senai.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleProfessor, user.Role)
	assert.Nil(t, user.StudentID)
	assert.Equal(t, "t1", *user.TeacherID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login = $2")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateLastLogin(context.Background(), "u1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
