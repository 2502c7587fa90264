package performance

import "fmt"

// Thresholds are the named cut-offs every classification uses.
type Thresholds struct {
	PassingGrade    float64 `json:"passing_grade"`
	RecoveryFloor   float64 `json:"recovery_floor"`
	AttendanceFloor float64 `json:"attendance_floor"`
}

// DefaultThresholds returns the institutional defaults: 7.0, 5.0 and 75%.
func DefaultThresholds() Thresholds {
	return Thresholds{PassingGrade: 7.0, RecoveryFloor: 5.0, AttendanceFloor: 75.0}
}

// Validate checks that the thresholds are ordered and within the grading scales.
func (t Thresholds) Validate() error {
	switch {
	case t.PassingGrade < 0 || t.PassingGrade > MaxGrade:
		return fmt.Errorf("passing grade %.2f outside [0,%v]", t.PassingGrade, MaxGrade)
	case t.RecoveryFloor < 0 || t.RecoveryFloor > t.PassingGrade:
		return fmt.Errorf("recovery floor %.2f must be within [0, passing grade]", t.RecoveryFloor)
	case t.AttendanceFloor < 0 || t.AttendanceFloor > MaxAttendance:
		return fmt.Errorf("attendance floor %.2f outside [0,%v]", t.AttendanceFloor, MaxAttendance)
	}
	return nil
}
