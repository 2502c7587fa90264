package dto

import (
	"time"

	"github.com/senai-sm/school-manager/internal/models"
)

// IssuedDocumentResponse returns a freshly issued document with a short-lived download link.
type IssuedDocumentResponse struct {
	Document    models.IssuedDocument `json:"document"`
	DownloadURL string                `json:"download_url"`
	VerifyURL   string                `json:"verify_url"`
	ExpiresAt   time.Time             `json:"expires_at"`
}

// DocumentVerification is the public answer to a validation code lookup.
type DocumentVerification struct {
	Valid          bool                `json:"valid"`
	ValidationCode string              `json:"validation_code"`
	Type           models.DocumentType `json:"type,omitempty"`
	StudentName    string              `json:"student_name,omitempty"`
	Registration   string              `json:"registration,omitempty"`
	IssuedAt       *time.Time          `json:"issued_at,omitempty"`
}

// BatchIssueResponse acknowledges a queued batch of report cards.
type BatchIssueResponse struct {
	JobID    string `json:"job_id"`
	ClassID  string `json:"class_id"`
	Students int    `json:"students"`
}

// DocumentFile is a stored document ready to stream.
type DocumentFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
