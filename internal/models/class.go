package models

import "time"

// ClassSection is a cohort of students attached to one course.
type ClassSection struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Year      int       `db:"year" json:"year"`
	Semester  int       `db:"semester" json:"semester"`
	Shift     string    `db:"shift" json:"shift"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassSectionDetail enriches a class with its course name and the enrolled count
// computed from the students table at query time.
type ClassSectionDetail struct {
	ClassSection
	CourseName    string `db:"course_name" json:"course_name"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
}

// AvailableSeats returns the remaining capacity, never negative.
func (c ClassSectionDetail) AvailableSeats() int {
	if free := c.Capacity - c.EnrolledCount; free > 0 {
		return free
	}
	return 0
}
