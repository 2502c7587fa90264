package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

const studentDetailSelect = `SELECT s.id, s.registration, s.full_name, s.email, s.current_class_id, s.enrollment_status, s.created_at, s.updated_at,
        c.code AS current_class_code, c.name AS current_class_name, c.course_id, co.name AS course_name
        FROM students s
        LEFT JOIN class_sections c ON c.id = s.current_class_id
        LEFT JOIN courses co ON co.id = c.course_id`

// StudentRepository reads student reference data.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student with class and course context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, studentDetailSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns students matching the filter ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.current_class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.enrollment_status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := studentDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.full_name"

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountByStatus returns the number of students per enrollment status.
func (r *StudentRepository) CountByStatus(ctx context.Context) (map[models.EnrollmentStatus]int, error) {
	var rows []struct {
		Status models.EnrollmentStatus `db:"enrollment_status"`
		Total  int                     `db:"total"`
	}
	const query = `SELECT enrollment_status, COUNT(*) AS total FROM students GROUP BY enrollment_status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count students by status: %w", err)
	}
	out := make(map[models.EnrollmentStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
