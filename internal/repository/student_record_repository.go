package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

const studentRecordColumns = `r.id, r.student_id, r.allocation_id, r.final_grade, r.final_average, r.attendance_pct, r.absences,
        r.approval_status, r.period, r.created_at, r.updated_at,
        st.full_name AS student_name, a.class_id, c.course_id, a.subject_id, sub.name AS subject_name, a.teacher_id`

const studentRecordJoins = `FROM student_records r
        JOIN students st ON st.id = r.student_id
        JOIN subject_allocations a ON a.id = r.allocation_id
        JOIN class_sections c ON c.id = a.class_id
        JOIN subjects sub ON sub.id = a.subject_id`

// StudentRecordRepository reads and writes the academic record store.
type StudentRecordRepository struct {
	db *sqlx.DB
}

// NewStudentRecordRepository constructs a StudentRecordRepository.
func NewStudentRecordRepository(db *sqlx.DB) *StudentRecordRepository {
	return &StudentRecordRepository{db: db}
}

// ListByScope returns every record attached to the scope, including those without grades.
// Class and course scopes follow the allocation the record belongs to.
func (r *StudentRecordRepository) ListByScope(ctx context.Context, filter models.StudentRecordFilter) ([]models.StudentRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	switch filter.Kind {
	case models.ScopeStudent:
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.ID)
	case models.ScopeClass:
		conditions = append(conditions, fmt.Sprintf("a.class_id = $%d", len(args)+1))
		args = append(args, filter.ID)
	case models.ScopeCourse:
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.ID)
	case models.ScopeInstitution:
	default:
		return nil, fmt.Errorf("list student records: unknown scope %q", filter.Kind)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("r.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("a.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(studentRecordColumns)
	sb.WriteString("\n        ")
	sb.WriteString(studentRecordJoins)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY r.period, sub.name, st.full_name")

	var records []models.StudentRecord
	if err := r.db.SelectContext(ctx, &records, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list student records: %w", err)
	}
	return records, nil
}

// ScopeExists reports whether the entity a scope points at exists.
func (r *StudentRecordRepository) ScopeExists(ctx context.Context, scope models.Scope) (bool, error) {
	var table string
	switch scope.Kind {
	case models.ScopeStudent:
		table = "students"
	case models.ScopeClass:
		table = "class_sections"
	case models.ScopeCourse:
		table = "courses"
	case models.ScopeInstitution:
		return true, nil
	default:
		return false, fmt.Errorf("scope exists: unknown scope %q", scope.Kind)
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", table)
	if err := r.db.GetContext(ctx, &exists, query, scope.ID); err != nil {
		return false, fmt.Errorf("scope exists %s: %w", scope.Key(), err)
	}
	return exists, nil
}

// FindByID fetches a single record with its allocation context.
func (r *StudentRecordRepository) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	query := "SELECT " + studentRecordColumns + "\n        " + studentRecordJoins + " WHERE r.id = $1"
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert inserts the record or updates the existing row for the same (student, allocation) pair.
// Concurrent writers are serialised by the database on the unique key.
func (r *StudentRecordRepository) Upsert(ctx context.Context, record *models.StudentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO student_records (id, student_id, allocation_id, final_grade, final_average, attendance_pct, absences, approval_status, period, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
        ON CONFLICT (student_id, allocation_id) DO UPDATE SET
            final_grade = EXCLUDED.final_grade,
            final_average = EXCLUDED.final_average,
            attendance_pct = EXCLUDED.attendance_pct,
            absences = EXCLUDED.absences,
            approval_status = EXCLUDED.approval_status,
            period = EXCLUDED.period,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		record.ID, record.StudentID, record.AllocationID,
		record.FinalGrade, record.FinalAverage, record.AttendancePct, record.Absences,
		record.ApprovalStatus, record.Period, now,
	)
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return fmt.Errorf("upsert student record: %w", err)
	}
	return nil
}
