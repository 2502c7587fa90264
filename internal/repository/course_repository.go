package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

// CourseRepository reads courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	const query = `SELECT id, code, name, level, active, created_at FROM courses WHERE id = $1`
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses ordered by name.
func (r *CourseRepository) List(ctx context.Context, activeOnly bool) ([]models.Course, error) {
	query := `SELECT id, code, name, level, active, created_at FROM courses`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
