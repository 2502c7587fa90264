package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/export"
	"github.com/senai-sm/school-manager/pkg/jobs"
	"github.com/senai-sm/school-manager/pkg/storage"
)

// JobTypeBoletim identifies queued report card issuance.
const JobTypeBoletim = "documents.boletim"

var validationCodePattern = regexp.MustCompile(`^[0-9A-F]{12}$`)

type documentStore interface {
	Create(ctx context.Context, doc *models.IssuedDocument) error
	FindByID(ctx context.Context, id string) (*models.IssuedDocument, error)
	FindByValidationCode(ctx context.Context, code string) (*models.IssuedDocument, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.IssuedDocument, error)
}

type studentLister interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
}

type reportCardBuilder interface {
	BuildReportCard(ctx context.Context, studentID string) (*dto.ReportCard, error)
}

type documentFileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (resourceID, relPath string, err error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// boletimJob is the payload of a queued report card.
type boletimJob struct {
	BatchID     string
	StudentID   string
	RequestedBy string
}

// DocumentServiceConfig holds URLs and retention for issued documents.
type DocumentServiceConfig struct {
	PublicBaseURL   string
	APIPrefix       string
	Retention       time.Duration
	CleanupSchedule string
}

// DocumentServiceParams groups constructor dependencies.
type DocumentServiceParams struct {
	Documents   documentStore
	Students    studentLister
	Classes     classFinder
	ReportCards reportCardBuilder
	Storage     documentFileStorage
	Signer      documentSigner
	Renderer    documentRenderer
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      DocumentServiceConfig
}

// DocumentService issues report cards and enrollment declarations as PDFs carrying a validation code.
type DocumentService struct {
	documents   documentStore
	students    studentLister
	classes     classFinder
	reportCards reportCardBuilder
	storage     documentFileStorage
	signer      documentSigner
	renderer    documentRenderer
	queue       jobDispatcher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DocumentServiceConfig
	now         func() time.Time
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	cfg := params.Config
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	return &DocumentService{
		documents:   params.Documents,
		students:    params.Students,
		classes:     params.Classes,
		reportCards: params.ReportCards,
		storage:     params.Storage,
		signer:      params.Signer,
		renderer:    renderer,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SetQueue wires the dispatcher used for batch issuance. The queue handler is HandleJob,
// so the queue can only be built after the service.
func (s *DocumentService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Issue renders and stores one document. Students may only request their own documents.
func (s *DocumentService) Issue(ctx context.Context, req models.IssueDocumentRequest, actor *models.JWTClaims) (*dto.IssuedDocumentResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document request")
	}
	switch {
	case actor.Role == models.RoleAluno:
		if actor.StudentID != req.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only request their own documents")
		}
	case !actor.Role.IsStaff():
		return nil, appErrors.ErrForbidden
	}

	student, err := s.findStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.issue(ctx, student, req.Type, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.response(*doc)
}

// IssueBatch queues a report card for every active student of a class.
func (s *DocumentService) IssueBatch(ctx context.Context, req models.BatchIssueRequest, actor *models.JWTClaims) (*dto.BatchIssueResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.IsStaff() {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch request")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "document queue unavailable")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	students, err := s.students.List(ctx, models.StudentFilter{ClassID: req.ClassID, Status: models.EnrollmentActive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}

	batchID := uuid.NewString()
	for _, student := range students {
		job := jobs.Job{
			ID:      batchID + ":" + student.ID,
			Type:    JobTypeBoletim,
			Payload: boletimJob{BatchID: batchID, StudentID: student.ID, RequestedBy: actor.UserID},
		}
		if err := s.queue.Enqueue(job); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report card")
		}
	}
	s.logger.Info("report card batch queued",
		zap.String("batch_id", batchID),
		zap.String("class_id", req.ClassID),
		zap.Int("students", len(students)),
	)
	return &dto.BatchIssueResponse{JobID: batchID, ClassID: req.ClassID, Students: len(students)}, nil
}

// HandleJob processes one queued report card.
func (s *DocumentService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(boletimJob)
	if !ok || job.Type != JobTypeBoletim {
		return fmt.Errorf("unexpected job %s of type %s", job.ID, job.Type)
	}
	student, err := s.findStudent(ctx, payload.StudentID)
	if err != nil {
		return err
	}
	doc, err := s.issue(ctx, student, models.DocumentBoletim, payload.RequestedBy)
	if err != nil {
		return err
	}
	s.logger.Debug("queued report card issued",
		zap.String("batch_id", payload.BatchID),
		zap.String("document_id", doc.ID),
	)
	return nil
}

// HandleJobFailure logs a report card that exhausted its retries.
func (s *DocumentService) HandleJobFailure(_ context.Context, job jobs.Job, err error) {
	s.logger.Error("report card issuance failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
}

// Verify looks a validation code up. Unknown codes are reported as invalid, not as errors.
func (s *DocumentService) Verify(ctx context.Context, code string) (*dto.DocumentVerification, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	result := &dto.DocumentVerification{ValidationCode: code}
	if !validationCodePattern.MatchString(code) {
		return result, nil
	}
	doc, err := s.documents.FindByValidationCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify document")
	}
	result.Valid = true
	result.Type = doc.Type
	issuedAt := doc.IssuedAt
	result.IssuedAt = &issuedAt
	if student, err := s.students.FindByID(ctx, doc.StudentID); err == nil {
		result.StudentName = student.FullName
		result.Registration = student.Registration
	} else {
		s.logger.Warn("verified document without student", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return result, nil
}

// Download resolves a signed token to the stored PDF.
func (s *DocumentService) Download(ctx context.Context, token string) (*dto.DocumentFile, error) {
	docID, relPath, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.StoragePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	content, err := s.storage.Read(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document")
	}
	return &dto.DocumentFile{
		Filename:    path.Base(relPath),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// ListForStudent returns the documents issued for a student, newest first.
func (s *DocumentService) ListForStudent(ctx context.Context, studentID string) ([]models.IssuedDocument, error) {
	docs, err := s.documents.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Cleanup deletes stored files past the retention window. Document rows stay, so codes keep verifying.
func (s *DocumentService) Cleanup(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deleted, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired document files removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

// StartCleanup schedules Cleanup on the configured cron expression. The returned cron must be stopped on shutdown.
func (s *DocumentService) StartCleanup() (*cron.Cron, error) {
	if s.cfg.CleanupSchedule == "" {
		return nil, nil
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(s.logger))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)), cron.WithLogger(cronLogger))
	_, err := c.AddFunc(s.cfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		if _, err := s.Cleanup(ctx); err != nil {
			s.logger.Error("document cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule document cleanup: %w", err)
	}
	c.Start()
	s.logger.Info("document cleanup scheduled",
		zap.String("schedule", s.cfg.CleanupSchedule),
		zap.Duration("retention", s.cfg.Retention),
	)
	return c, nil
}

func (s *DocumentService) issue(ctx context.Context, student *models.StudentDetail, docType models.DocumentType, requestedBy string) (*models.IssuedDocument, error) {
	if docType == models.DocumentDeclaracao && student.EnrollmentStatus != models.EnrollmentActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "declaration requires an active enrollment")
	}
	doc := &models.IssuedDocument{
		ID:             uuid.NewString(),
		StudentID:      student.ID,
		RequestedBy:    requestedBy,
		Type:           docType,
		ValidationCode: newValidationCode(),
		IssuedAt:       s.now().UTC(),
	}

	layout, err := s.layout(ctx, student, doc)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderDocument(layout)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}
	relPath := path.Join(student.ID, fmt.Sprintf("%s-%s.pdf", strings.ToLower(string(docType)), doc.ValidationCode))
	if doc.StoragePath, err = s.storage.Save(relPath, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(doc.StoragePath); delErr != nil {
			s.logger.Warn("failed to remove unrecorded document file", zap.String("path", doc.StoragePath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}
	s.metrics.RecordDocumentIssued(string(docType))
	s.logger.Info("document issued",
		zap.String("document_id", doc.ID),
		zap.String("type", string(docType)),
		zap.String("student_id", student.ID),
	)
	return doc, nil
}

func (s *DocumentService) layout(ctx context.Context, student *models.StudentDetail, doc *models.IssuedDocument) (export.Document, error) {
	layout := export.Document{
		Subtitle:  fmt.Sprintf("%s - RA %s", student.FullName, student.Registration),
		QRContent: s.verifyURL(doc.ValidationCode),
		Footer:    "Código de validação: " + doc.ValidationCode,
		IssuedAt:  doc.IssuedAt,
	}
	switch doc.Type {
	case models.DocumentBoletim:
		card, err := s.reportCards.BuildReportCard(ctx, student.ID)
		if err != nil {
			return export.Document{}, err
		}
		layout.Title = "Boletim Escolar"
		layout.Paragraphs = []string{
			enrollmentLine(student),
			fmt.Sprintf("Média geral: %s | Frequência média: %s | Situação: %s",
				formatDecimal(card.Overall.AverageGrade), formatPercent(card.Overall.AverageAttendance), card.Overall.Label),
		}
		table := reportCardDataset(card)
		layout.Table = &table
	case models.DocumentDeclaracao:
		layout.Title = "Declaração de Matrícula"
		layout.Paragraphs = []string{
			fmt.Sprintf("Declaramos, para os devidos fins, que %s, RA %s, encontra-se regularmente matriculado(a) nesta instituição.",
				student.FullName, student.Registration),
			enrollmentLine(student),
		}
	default:
		return export.Document{}, appErrors.Clone(appErrors.ErrValidation, "unsupported document type")
	}
	return layout, nil
}

func (s *DocumentService) response(doc models.IssuedDocument) (*dto.IssuedDocumentResponse, error) {
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.IssuedDocumentResponse{
		Document:    doc,
		DownloadURL: s.cfg.PublicBaseURL + s.cfg.APIPrefix + "/documents/download/" + token,
		VerifyURL:   s.verifyURL(doc.ValidationCode),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *DocumentService) verifyURL(code string) string {
	return s.cfg.PublicBaseURL + s.cfg.APIPrefix + "/documents/verify/" + code
}

func (s *DocumentService) findStudent(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func newValidationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func enrollmentLine(student *models.StudentDetail) string {
	course, class := "-", "-"
	if student.CourseName != nil {
		course = *student.CourseName
	}
	if student.CurrentClassName != nil {
		class = *student.CurrentClassName
	}
	return fmt.Sprintf("Curso: %s | Turma: %s", course, class)
}

func reportCardDataset(card *dto.ReportCard) export.Dataset {
	data := export.Dataset{Headers: []string{"Período", "Disciplina", "Nota", "Frequência", "Situação"}}
	for _, period := range card.Periods {
		for _, row := range period.Rows {
			grade := row.FinalAverage
			if grade == nil {
				grade = row.FinalGrade
			}
			data.Rows = append(data.Rows, map[string]string{
				"Período":    row.Period,
				"Disciplina": row.SubjectName,
				"Nota":       formatDecimal(grade),
				"Frequência": formatPercent(row.AttendancePct),
				"Situação":   row.Label,
			})
		}
	}
	return data
}

// formatDecimal renders a one-decimal pt-BR number, or a dash when absent.
func formatDecimal(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.Replace(fmt.Sprintf("%.1f", *v), ".", ",", 1)
}

func formatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatDecimal(v) + "%"
}
