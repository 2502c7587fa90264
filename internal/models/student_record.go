package models

import "time"

// StudentRecord is the graded outcome of one student in one subject allocation.
// Nullable numerics mean the value has not been recorded yet.
type StudentRecord struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	AllocationID   string    `db:"allocation_id" json:"allocation_id"`
	FinalGrade     *float64  `db:"final_grade" json:"final_grade"`
	FinalAverage   *float64  `db:"final_average" json:"final_average"`
	AttendancePct  *float64  `db:"attendance_pct" json:"attendance_pct"`
	Absences       *int      `db:"absences" json:"absences"`
	ApprovalStatus *string   `db:"approval_status" json:"approval_status,omitempty"`
	Period         string    `db:"period" json:"period"`
	StudentName    string    `db:"student_name" json:"student_name"`
	ClassID        string    `db:"class_id" json:"class_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	SubjectName    string    `db:"subject_name" json:"subject_name"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Grade returns the value used for averaging: the final average when recorded, otherwise the final grade.
func (r StudentRecord) Grade() *float64 {
	if r.FinalAverage != nil {
		return r.FinalAverage
	}
	return r.FinalGrade
}

// UpsertStudentRecordRequest is the write payload for a student record.
type UpsertStudentRecordRequest struct {
	StudentID      string   `json:"student_id" validate:"required"`
	AllocationID   string   `json:"allocation_id" validate:"required"`
	FinalGrade     *float64 `json:"final_grade" validate:"omitempty,gte=0,lte=10"`
	FinalAverage   *float64 `json:"final_average" validate:"omitempty,gte=0,lte=10"`
	AttendancePct  *float64 `json:"attendance_pct" validate:"omitempty,gte=0,lte=100"`
	Absences       *int     `json:"absences" validate:"omitempty,gte=0"`
	ApprovalStatus *string  `json:"approval_status" validate:"omitempty,max=50"`
	Period         string   `json:"period" validate:"required,max=30"`
}

// ScopeKind selects which reference entity a record query is anchored to.
type ScopeKind string

const (
	ScopeStudent     ScopeKind = "student"
	ScopeClass       ScopeKind = "class"
	ScopeCourse      ScopeKind = "course"
	ScopeInstitution ScopeKind = "all"
)

// Scope identifies the set of records to read. ID is ignored for ScopeInstitution.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// Key renders the scope as a stable string, used for cache keys and logs.
func (s Scope) Key() string {
	if s.Kind == ScopeInstitution {
		return string(ScopeInstitution)
	}
	return string(s.Kind) + ":" + s.ID
}

// StudentRecordFilter narrows a scope read.
type StudentRecordFilter struct {
	Scope
	Period    string
	TeacherID string
}
