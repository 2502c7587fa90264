package models

import "time"

// DocumentType enumerates the institutional documents the service can issue.
type DocumentType string

const (
	DocumentBoletim    DocumentType = "BOLETIM"
	DocumentDeclaracao DocumentType = "DECLARACAO"
)

// Valid reports whether the type can be issued.
func (t DocumentType) Valid() bool {
	return t == DocumentBoletim || t == DocumentDeclaracao
}

// IssuedDocument is a generated PDF with a public validation code.
type IssuedDocument struct {
	ID             string       `db:"id" json:"id"`
	StudentID      string       `db:"student_id" json:"student_id"`
	RequestedBy    string       `db:"requested_by" json:"requested_by"`
	Type           DocumentType `db:"type" json:"type"`
	ValidationCode string       `db:"validation_code" json:"validation_code"`
	StoragePath    string       `db:"storage_path" json:"-"`
	IssuedAt       time.Time    `db:"issued_at" json:"issued_at"`
}

// IssueDocumentRequest asks for one document for one student.
type IssueDocumentRequest struct {
	StudentID string       `json:"student_id" validate:"required"`
	Type      DocumentType `json:"type" validate:"required,oneof=BOLETIM DECLARACAO"`
}

// BatchIssueRequest asks for report cards for every student of a class.
type BatchIssueRequest struct {
	ClassID string `json:"class_id" validate:"required"`
}
