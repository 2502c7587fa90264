package models

import "time"

// EnrollmentStatus is the lifecycle state of a student's enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentLocked    EnrollmentStatus = "LOCKED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentGraduated EnrollmentStatus = "GRADUATED"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID               string           `db:"id" json:"id"`
	Registration     string           `db:"registration" json:"registration"`
	FullName         string           `db:"full_name" json:"full_name"`
	Email            string           `db:"email" json:"email"`
	CurrentClassID   *string          `db:"current_class_id" json:"current_class_id,omitempty"`
	EnrollmentStatus EnrollmentStatus `db:"enrollment_status" json:"enrollment_status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with class and course context.
type StudentDetail struct {
	Student
	CurrentClassCode *string `db:"current_class_code" json:"current_class_code,omitempty"`
	CurrentClassName *string `db:"current_class_name" json:"current_class_name,omitempty"`
	CourseID         *string `db:"course_id" json:"course_id,omitempty"`
	CourseName       *string `db:"course_name" json:"course_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ClassID  string
	CourseID string
	Status   EnrollmentStatus
}
