package performance

import "github.com/senai-sm/school-manager/internal/models"

// RollupResult tallies the distinct students of a scope by classification.
type RollupResult struct {
	Approved                int `json:"approved"`
	Recovery                int `json:"recovery"`
	Failed                  int `json:"failed"`
	TotalStudentsConsidered int `json:"total_students_considered"`
}

// Percentages is the efficiency view of a rollup, one decimal place.
type Percentages struct {
	ApprovedPct float64 `json:"aprovados_pct"`
	RecoveryPct float64 `json:"recuperacao_pct"`
	FailedPct   float64 `json:"reprovados_pct"`
}

// Rollup groups the records by student, classifies each student and counts the outcomes.
// Students whose grades are not recorded yet are not considered. Empty input yields zero counts.
func (c Classifier) Rollup(records []models.StudentRecord) RollupResult {
	var out RollupResult
	for _, summary := range GroupBy(records, ByStudent) {
		switch c.Classify(summary.AverageGrade, summary.AverageAttendance) {
		case StatusApproved:
			out.Approved++
		case StatusRecovery:
			out.Recovery++
		case StatusFailed:
			out.Failed++
		default:
			continue
		}
		out.TotalStudentsConsidered++
	}
	return out
}

// Percentages converts the counts to shares of the considered students, 0 when none were considered.
func (r RollupResult) Percentages() Percentages {
	if r.TotalStudentsConsidered == 0 {
		return Percentages{}
	}
	total := float64(r.TotalStudentsConsidered)
	return Percentages{
		ApprovedPct: Round1(float64(r.Approved) * 100 / total),
		RecoveryPct: Round1(float64(r.Recovery) * 100 / total),
		FailedPct:   Round1(float64(r.Failed) * 100 / total),
	}
}
