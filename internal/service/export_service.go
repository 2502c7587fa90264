package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/performance"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type classPerformanceProvider interface {
	ClassPerformance(ctx context.Context, classID string) (*dto.ClassPerformance, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders class performance listings as CSV or PDF.
type ExportService struct {
	performance classPerformanceProvider
	csv         csvRenderer
	pdf         pdfRenderer
	enabled     bool
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(performance classPerformanceProvider, enabled bool, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewSpreadsheetCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{performance: performance, csv: csv, pdf: pdf, enabled: enabled, logger: logger}
}

// ClassPerformance exports the per-student evaluation of a class followed by its rollup.
func (s *ExportService) ClassPerformance(ctx context.Context, classID, format string) (*dto.DocumentFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exports disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	class, _, err := s.performance.ClassPerformance(ctx, classID)
	if err != nil {
		return nil, err
	}
	dataset := classDataset(class)

	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(dataset)
	case FormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Desempenho da turma %s - %s", class.Class.Code, class.Class.Name))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("class performance exported", zap.String("class_id", classID), zap.String("format", format), zap.Int("bytes", len(payload)))
	file := &dto.DocumentFile{
		Filename: fmt.Sprintf("desempenho-%s.%s", strings.ToLower(class.Class.Code), format),
		Content:  payload,
	}
	if format == FormatCSV {
		file.ContentType = "text/csv; charset=utf-8"
	} else {
		file.ContentType = "application/pdf"
	}
	return file, nil
}

func classDataset(class *dto.ClassPerformance) export.Dataset {
	data := export.Dataset{Headers: []string{"Aluno", "Média", "Frequência", "Situação", "Em risco"}}
	for _, row := range class.Students {
		data.Rows = append(data.Rows, map[string]string{
			"Aluno":      row.StudentName,
			"Média":      formatDecimal(row.AverageGrade),
			"Frequência": formatPercent(row.AverageAttendance),
			"Situação":   row.Label,
			"Em risco":   yesNo(row.AtRisk),
		})
	}
	r := class.Rollup
	data.Rows = append(data.Rows,
		rollupRow(performance.StatusApproved.Label(), r.Approved, r.ApprovedPct),
		rollupRow(performance.StatusRecovery.Label(), r.Recovery, r.RecoveryPct),
		rollupRow(performance.StatusFailed.Label(), r.Failed, r.FailedPct),
	)
	return data
}

func rollupRow(label string, count int, pct float64) map[string]string {
	return map[string]string{
		"Aluno":    "Total " + label,
		"Média":    strconv.Itoa(count),
		"Situação": formatPercent(&pct),
	}
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}
