package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

const allocationSelect = `SELECT a.id, a.class_id, a.subject_id, a.teacher_id,
        c.code AS class_code, sub.name AS subject_name, t.full_name AS teacher_name
        FROM subject_allocations a
        JOIN class_sections c ON c.id = a.class_id
        JOIN subjects sub ON sub.id = a.subject_id
        JOIN teachers t ON t.id = a.teacher_id`

// AllocationRepository reads class × subject × teacher allocations.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// FindByID fetches an allocation with display names.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*models.SubjectAllocation, error) {
	var allocation models.SubjectAllocation
	if err := r.db.GetContext(ctx, &allocation, allocationSelect+" WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ListByTeacher returns the teacher's allocations.
func (r *AllocationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.SubjectAllocation, error) {
	var allocations []models.SubjectAllocation
	if err := r.db.SelectContext(ctx, &allocations, allocationSelect+" WHERE a.teacher_id = $1 ORDER BY c.code, sub.name", teacherID); err != nil {
		return nil, fmt.Errorf("list allocations by teacher: %w", err)
	}
	return allocations, nil
}
