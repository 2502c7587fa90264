package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

const documentColumns = `id, student_id, requested_by, type, validation_code, storage_path, issued_at`

// DocumentRepository persists issued document metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores a new issued document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.IssuedDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO issued_documents (id, student_id, requested_by, type, validation_code, storage_path, issued_at)
        VALUES (:id, :student_id, :requested_by, :type, :validation_code, :storage_path, :issued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create issued document: %w", err)
	}
	return nil
}

// FindByID fetches a document by id.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.IssuedDocument, error) {
	var doc models.IssuedDocument
	if err := r.db.GetContext(ctx, &doc, "SELECT "+documentColumns+" FROM issued_documents WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByValidationCode fetches a document by its public validation code.
func (r *DocumentRepository) FindByValidationCode(ctx context.Context, code string) (*models.IssuedDocument, error) {
	var doc models.IssuedDocument
	if err := r.db.GetContext(ctx, &doc, "SELECT "+documentColumns+" FROM issued_documents WHERE validation_code = $1", code); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStudent returns a student's documents, newest first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.IssuedDocument, error) {
	var docs []models.IssuedDocument
	if err := r.db.SelectContext(ctx, &docs, "SELECT "+documentColumns+" FROM issued_documents WHERE student_id = $1 ORDER BY issued_at DESC", studentID); err != nil {
		return nil, fmt.Errorf("list issued documents: %w", err)
	}
	return docs, nil
}
