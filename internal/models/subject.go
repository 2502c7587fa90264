package models

// Subject is a curricular unit taught in class sections.
type Subject struct {
	ID            string `db:"id" json:"id"`
	Code          string `db:"code" json:"code"`
	Name          string `db:"name" json:"name"`
	WorkloadHours int    `db:"workload_hours" json:"workload_hours"`
}

// Teacher is a professor who can be allocated to class subjects.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// SubjectAllocation binds a subject and a teacher to a class section. It is unique per (class, subject).
type SubjectAllocation struct {
	ID          string `db:"id" json:"id"`
	ClassID     string `db:"class_id" json:"class_id"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	ClassCode   string `db:"class_code" json:"class_code,omitempty"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
}
