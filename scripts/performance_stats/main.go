package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/internal/performance"
	"github.com/senai-sm/school-manager/internal/repository"
	"github.com/senai-sm/school-manager/pkg/config"
	"github.com/senai-sm/school-manager/pkg/database"
)

type courseStats struct {
	CourseID string `json:"course_id"`
	Name     string `json:"name"`
	performance.RollupResult
	performance.Percentages
	AtRisk int `json:"at_risk"`
}

type report struct {
	Period      string                 `json:"period,omitempty"`
	Thresholds  performance.Thresholds `json:"thresholds"`
	Courses     []courseStats          `json:"courses"`
	Institution courseStats            `json:"institution"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type options struct {
	period     string
	asJSON     bool
	maxFailed  float64
	timeout    time.Duration
	activeOnly bool
}

func main() {
	var opts options
	flag.StringVar(&opts.period, "period", "", "Restrict to one enrollment period")
	flag.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	flag.Float64Var(&opts.maxFailed, "max-failed-pct", 0, "Exit 1 when any course fails more than this share of students (0 disables)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Query timeout")
	flag.BoolVar(&opts.activeOnly, "active-only", true, "Only report active courses")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	classifier, err := performance.NewClassifier(performance.Thresholds{
		PassingGrade:    cfg.Performance.PassingGrade,
		RecoveryFloor:   cfg.Performance.RecoveryFloor,
		AttendanceFloor: cfg.Performance.AttendanceFloor,
	})
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	courses, err := repository.NewCourseRepository(db).List(ctx, opts.activeOnly)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	records, err := repository.NewStudentRecordRepository(db).ListByScope(ctx, models.StudentRecordFilter{
		Scope:  models.Scope{Kind: models.ScopeInstitution},
		Period: opts.period,
	})
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	rep := buildReport(classifier, courses, records)
	rep.Period = opts.period
	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printTable(os.Stdout, rep)
	}
	return checkFailedLimit(rep, opts.maxFailed)
}

// checkFailedLimit reports the first course failing more than limit percent of its students.
func checkFailedLimit(rep report, limit float64) error {
	if limit <= 0 {
		return nil
	}
	for _, c := range rep.Courses {
		if c.FailedPct > limit {
			return fmt.Errorf("course %s fails %.1f%% of its students (limit %.1f%%)", c.Name, c.FailedPct, limit)
		}
	}
	return nil
}

func buildReport(classifier performance.Classifier, courses []models.Course, records []models.StudentRecord) report {
	rep := report{Thresholds: classifier.Thresholds, GeneratedAt: time.Now().UTC()}
	byCourse := performance.Partition(records, performance.ByCourse)
	for _, course := range courses {
		rep.Courses = append(rep.Courses, stats(classifier, course.ID, course.Name, byCourse[course.ID]))
	}
	rep.Institution = stats(classifier, "", "Instituição", records)
	return rep
}

func stats(classifier performance.Classifier, id, name string, records []models.StudentRecord) courseStats {
	rollup := classifier.Rollup(records)
	out := courseStats{CourseID: id, Name: name, RollupResult: rollup, Percentages: rollup.Percentages()}
	for _, summary := range performance.GroupBy(records, performance.ByStudent) {
		if classifier.AtRisk(summary.AverageGrade, summary.AverageAttendance) {
			out.AtRisk++
		}
	}
	return out
}

func printTable(w io.Writer, rep report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Curso\tAlunos\tAprovados\tRecuperação\tReprovados\tEm risco")
	row := func(s courseStats) {
		fmt.Fprintf(tw, "%s\t%d\t%d (%.1f%%)\t%d (%.1f%%)\t%d (%.1f%%)\t%d\n",
			s.Name, s.TotalStudentsConsidered,
			s.Approved, s.ApprovedPct,
			s.Recovery, s.RecoveryPct,
			s.Failed, s.FailedPct,
			s.AtRisk)
	}
	for _, c := range rep.Courses {
		row(c)
	}
	row(rep.Institution)
	_ = tw.Flush()
}
