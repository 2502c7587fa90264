package dto

import (
	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/internal/performance"
)

// PeriodPerformance is the evaluation of one enrollment period.
type PeriodPerformance struct {
	Period string `json:"period"`
	performance.Evaluation
}

// StudentPerformance is the academic summary of one student.
type StudentPerformance struct {
	Student  models.StudentDetail   `json:"student"`
	Overall  performance.Evaluation `json:"overall"`
	Periods  []PeriodPerformance    `json:"periods"`
	Subjects []RecordRow            `json:"subjects"`
}

// StudentRow is one line of a class listing.
type StudentRow struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	performance.Evaluation
}

// ClassPerformance is a class with the evaluation of each of its students.
type ClassPerformance struct {
	Class    models.ClassSectionDetail `json:"class"`
	Overall  performance.Evaluation    `json:"overall"`
	Rollup   RollupView                `json:"rollup"`
	Students []StudentRow              `json:"students"`
}

// RollupView is the efficiency report of a scope: raw counts plus percentages.
type RollupView struct {
	Scope   models.ScopeKind `json:"scope"`
	ScopeID string           `json:"scope_id,omitempty"`
	Name    string           `json:"name,omitempty"`
	performance.RollupResult
	performance.Percentages
}

// NewRollupView assembles a view from a rollup result.
func NewRollupView(scope models.Scope, name string, result performance.RollupResult) RollupView {
	view := RollupView{Scope: scope.Kind, Name: name, RollupResult: result, Percentages: result.Percentages()}
	if scope.Kind != models.ScopeInstitution {
		view.ScopeID = scope.ID
	}
	return view
}

// AtRiskStudent flags a student needing intervention with the reasons that triggered it.
type AtRiskStudent struct {
	StudentID         string   `json:"student_id"`
	StudentName       string   `json:"student_name"`
	AverageGrade      *float64 `json:"average_grade"`
	AverageAttendance *float64 `json:"average_attendance"`
	Reasons           []string `json:"reasons"`
}

// RecordRow is a student record with its classification label.
type RecordRow struct {
	RecordID      string             `json:"record_id"`
	StudentID     string             `json:"student_id"`
	StudentName   string             `json:"student_name"`
	SubjectName   string             `json:"subject_name"`
	Period        string             `json:"period"`
	FinalGrade    *float64           `json:"final_grade"`
	FinalAverage  *float64           `json:"final_average"`
	AttendancePct *float64           `json:"attendance_pct"`
	Absences      *int               `json:"absences"`
	Status        performance.Status `json:"status,omitempty"`
	Label         string             `json:"label"`
	Invalid       bool               `json:"invalid,omitempty"`
}

// ReportCardPeriod groups the rows of one period with the period summary.
type ReportCardPeriod struct {
	Period  string                 `json:"period"`
	Rows    []RecordRow            `json:"rows"`
	Summary performance.Evaluation `json:"summary"`
}

// ReportCard is the boletim of a student grouped by period.
type ReportCard struct {
	Student models.StudentDetail   `json:"student"`
	Periods []ReportCardPeriod     `json:"periods"`
	Overall performance.Evaluation `json:"overall"`
}
