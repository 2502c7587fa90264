package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/internal/performance"
)

func f64(v float64) *float64 { return &v }

func TestBuildReport(t *testing.T) {
	classifier, err := performance.NewClassifier(performance.DefaultThresholds())
	require.NoError(t, err)

	courses := []models.Course{{ID: "course-1", Name: "Informática"}, {ID: "course-2", Name: "Mecânica"}}
	records := []models.StudentRecord{
		{StudentID: "ana", CourseID: "course-1", FinalGrade: f64(8), AttendancePct: f64(90)},
		{StudentID: "bruno", CourseID: "course-1", FinalGrade: f64(6), AttendancePct: f64(80)},
		{StudentID: "carla", CourseID: "course-1", FinalGrade: f64(9), AttendancePct: f64(60)},
	}

	rep := buildReport(classifier, courses, records)

	require.Len(t, rep.Courses, 2)
	info := rep.Courses[0]
	assert.Equal(t, 3, info.TotalStudentsConsidered)
	assert.Equal(t, 1, info.Approved)
	assert.Equal(t, 1, info.Recovery)
	assert.Equal(t, 1, info.Failed)
	assert.Equal(t, 33.3, info.ApprovedPct)
	assert.Equal(t, 1, info.AtRisk)

	empty := rep.Courses[1]
	assert.Zero(t, empty.TotalStudentsConsidered)
	assert.Zero(t, empty.ApprovedPct)
	assert.Zero(t, empty.AtRisk)

	var out bytes.Buffer
	printTable(&out, rep)
	assert.Contains(t, out.String(), "Informática")
	assert.Contains(t, out.String(), "Instituição")
}

func TestCheckFailedLimit(t *testing.T) {
	rep := report{Courses: []courseStats{
		{Name: "Informática", Percentages: performance.Percentages{FailedPct: 20}},
		{Name: "Mecânica", Percentages: performance.Percentages{FailedPct: 40}},
	}}

	assert.NoError(t, checkFailedLimit(rep, 0))
	assert.NoError(t, checkFailedLimit(rep, 50))

	err := checkFailedLimit(rep, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mecânica")
}
