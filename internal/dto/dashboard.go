package dto

import "github.com/senai-sm/school-manager/internal/models"

// AlunoDashboard is the landing page of a student.
type AlunoDashboard struct {
	Performance StudentPerformance      `json:"performance"`
	Documents   []models.IssuedDocument `json:"documents"`
}

// ClassOverview summarises one class on the teacher dashboard.
type ClassOverview struct {
	Class       models.ClassSectionDetail `json:"class"`
	Rollup      RollupView                `json:"rollup"`
	AtRiskCount int                       `json:"at_risk_count"`
}

// ProfessorDashboard lists the teacher's allocations, classes and students at risk.
type ProfessorDashboard struct {
	Allocations []models.SubjectAllocation `json:"allocations"`
	Classes     []ClassOverview            `json:"classes"`
	AtRisk      []AtRiskStudent            `json:"at_risk"`
}

// ClassOccupancy shows derived enrollment against capacity.
type ClassOccupancy struct {
	ClassID        string `json:"class_id"`
	Code           string `json:"code"`
	CourseName     string `json:"course_name"`
	Capacity       int    `json:"capacity"`
	EnrolledCount  int    `json:"enrolled_count"`
	AvailableSeats int    `json:"available_seats"`
}

// SecretariaDashboard aggregates enrollment figures for the school office.
type SecretariaDashboard struct {
	StudentsByStatus map[models.EnrollmentStatus]int `json:"students_by_status"`
	TotalStudents    int                             `json:"total_students"`
	Classes          []ClassOccupancy                `json:"classes"`
}

// CoordenacaoDashboard carries the institution KPIs and the per-course efficiency.
type CoordenacaoDashboard struct {
	Institution RollupView      `json:"institution"`
	Courses     []RollupView    `json:"courses"`
	AtRiskCount int             `json:"at_risk_count"`
	AtRisk      []AtRiskStudent `json:"at_risk"`
}
