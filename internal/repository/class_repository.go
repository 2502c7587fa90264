package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

// enrolled_count is always derived from the students table; class_sections has no counter column.
const classDetailSelect = `SELECT c.id, c.code, c.name, c.course_id, c.year, c.semester, c.shift, c.capacity, c.created_at,
        co.name AS course_name,
        (SELECT COUNT(*) FROM students s WHERE s.current_class_id = c.id AND s.enrollment_status = 'ACTIVE') AS enrolled_count
        FROM class_sections c
        JOIN courses co ON co.id = c.course_id`

// ClassRepository reads class sections.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID fetches a class with its derived enrolled count.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassSectionDetail, error) {
	var detail models.ClassSectionDetail
	if err := r.db.GetContext(ctx, &detail, classDetailSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns classes, optionally restricted to one course.
func (r *ClassRepository) List(ctx context.Context, courseID string) ([]models.ClassSectionDetail, error) {
	query := classDetailSelect
	var args []interface{}
	if courseID != "" {
		query += " WHERE c.course_id = $1"
		args = append(args, courseID)
	}
	query += " ORDER BY c.year DESC, c.semester DESC, c.code"

	var classes []models.ClassSectionDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListByTeacher returns the classes where the teacher holds at least one allocation.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSectionDetail, error) {
	query := classDetailSelect + ` WHERE EXISTS (SELECT 1 FROM subject_allocations a WHERE a.class_id = c.id AND a.teacher_id = $1)
        ORDER BY c.code`
	var classes []models.ClassSectionDetail
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes, nil
}
