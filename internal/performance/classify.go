package performance

// Status is the categorical outcome of a classification.
type Status string

const (
	StatusApproved   Status = "APPROVED"
	StatusRecovery   Status = "RECOVERY"
	StatusFailed     Status = "FAILED"
	StatusInProgress Status = "IN_PROGRESS"
	// StatusAtRisk is never returned by Classify; it labels the secondary at-risk tag.
	StatusAtRisk Status = "AT_RISK"
)

var labels = map[Status]string{
	StatusApproved:   "Aprovado",
	StatusRecovery:   "Recuperação",
	StatusFailed:     "Reprovado",
	StatusInProgress: "Cursando",
	StatusAtRisk:     "Em risco",
}

// Label returns the pt-BR display label of the status.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Evaluation is a summary together with its classification.
type Evaluation struct {
	Summary
	Status Status `json:"status"`
	Label  string `json:"label"`
	AtRisk bool   `json:"at_risk"`
}

// Classifier applies a fixed set of thresholds.
type Classifier struct {
	Thresholds Thresholds
}

// NewClassifier validates the thresholds and returns a classifier.
func NewClassifier(t Thresholds) (Classifier, error) {
	if err := t.Validate(); err != nil {
		return Classifier{}, err
	}
	return Classifier{Thresholds: t}, nil
}

// Classify maps averages to a status. Attendance below the floor fails the student
// regardless of grade; a missing grade means the student is still in progress.
func (c Classifier) Classify(grade, attendance *float64) Status {
	t := c.Thresholds
	switch {
	case grade == nil:
		return StatusInProgress
	case attendance != nil && *attendance < t.AttendanceFloor:
		return StatusFailed
	case *grade >= t.PassingGrade:
		return StatusApproved
	case *grade >= t.RecoveryFloor:
		return StatusRecovery
	default:
		return StatusFailed
	}
}

// AtRisk flags students needing intervention: grade under the recovery floor or
// attendance under the attendance floor. Missing values never raise the flag.
func (c Classifier) AtRisk(grade, attendance *float64) bool {
	t := c.Thresholds
	return (grade != nil && *grade < t.RecoveryFloor) || (attendance != nil && *attendance < t.AttendanceFloor)
}

// Evaluate classifies a summary. Classification uses the unrounded averages; the
// returned summary is rounded for display.
func (c Classifier) Evaluate(s Summary) Evaluation {
	status := c.Classify(s.AverageGrade, s.AverageAttendance)
	return Evaluation{
		Summary: s.Rounded(),
		Status:  status,
		Label:   status.Label(),
		AtRisk:  c.AtRisk(s.AverageGrade, s.AverageAttendance),
	}
}
