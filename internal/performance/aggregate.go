package performance

import (
	"sort"

	"github.com/senai-sm/school-manager/internal/models"
)

const (
	MaxGrade      = 10.0
	MaxAttendance = 100.0
)

// Summary holds the statistics of one group of records.
type Summary struct {
	AverageGrade      *float64 `json:"average_grade"`
	AverageAttendance *float64 `json:"average_attendance"`
	RecordCount       int      `json:"record_count"`
	// Excluded counts records dropped for holding out-of-range values.
	Excluded int `json:"excluded_records,omitempty"`
}

// Rounded returns a copy with both averages rounded to one decimal place for display.
func (s Summary) Rounded() Summary {
	out := s
	out.AverageGrade = Round1Ptr(s.AverageGrade)
	out.AverageAttendance = Round1Ptr(s.AverageAttendance)
	return out
}

// KeyFunc extracts the grouping key of a record.
type KeyFunc func(models.StudentRecord) string

var (
	ByStudent KeyFunc = func(r models.StudentRecord) string { return r.StudentID }
	ByClass   KeyFunc = func(r models.StudentRecord) string { return r.ClassID }
	ByCourse  KeyFunc = func(r models.StudentRecord) string { return r.CourseID }
	ByPeriod  KeyFunc = func(r models.StudentRecord) string { return r.Period }
)

// Valid reports whether every recorded value of the record is within its scale.
func Valid(r models.StudentRecord) bool {
	if !inRange(r.FinalGrade, MaxGrade) || !inRange(r.FinalAverage, MaxGrade) || !inRange(r.AttendancePct, MaxAttendance) {
		return false
	}
	return r.Absences == nil || *r.Absences >= 0
}

// Aggregate computes the mean grade and mean attendance over the records that carry each value.
func Aggregate(records []models.StudentRecord) Summary {
	var (
		summary                 Summary
		gradeSum, attendanceSum float64
		gradeCount, attendCount int
	)
	for _, r := range records {
		if !Valid(r) {
			summary.Excluded++
			continue
		}
		summary.RecordCount++
		if g := r.Grade(); g != nil {
			gradeSum += *g
			gradeCount++
		}
		if r.AttendancePct != nil {
			attendanceSum += *r.AttendancePct
			attendCount++
		}
	}
	summary.AverageGrade = mean(gradeSum, gradeCount)
	summary.AverageAttendance = mean(attendanceSum, attendCount)
	return summary
}

// GroupBy partitions the records by key and aggregates each partition.
func GroupBy(records []models.StudentRecord, key KeyFunc) map[string]Summary {
	groups := Partition(records, key)
	out := make(map[string]Summary, len(groups))
	for k, rs := range groups {
		out[k] = Aggregate(rs)
	}
	return out
}

// Partition splits the records by key, keeping their original order inside each group.
func Partition(records []models.StudentRecord, key KeyFunc) map[string][]models.StudentRecord {
	groups := make(map[string][]models.StudentRecord)
	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r)
	}
	return groups
}

// SortedKeys returns the keys of a grouping in ascending order.
func SortedKeys[T any](groups map[string]T) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func inRange(v *float64, upper float64) bool {
	return v == nil || (*v >= 0 && *v <= upper)
}
