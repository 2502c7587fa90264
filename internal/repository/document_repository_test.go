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

func TestDocumentRepositoryCreateAndFindByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO issued_documents").
		WithArgs(sqlmock.AnyArg(), "s1", "u1", models.DocumentBoletim, "ABCDEF123456", "boletim/s1.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.IssuedDocument{StudentID: "s1", RequestedBy: "u1", Type: models.DocumentBoletim, ValidationCode: "ABCDEF123456", StoragePath: "boletim/s1.pdf"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.IssuedAt.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("FROM issued_documents WHERE validation_code = $1")).
		WithArgs("ABCDEF123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "requested_by", "type", "validation_code", "storage_path", "issued_at"}).
			AddRow(doc.ID, "s1", "u1", "BOLETIM", "ABCDEF123456", "boletim/s1.pdf", time.Now()))

	found, err := repo.FindByValidationCode(context.Background(), "ABCDEF123456")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)
	assert.Equal(t, models.DocumentBoletim, found.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
