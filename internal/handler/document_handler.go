package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/response"
)

type documentService interface {
	Issue(ctx context.Context, req models.IssueDocumentRequest, actor *models.JWTClaims) (*dto.IssuedDocumentResponse, error)
	IssueBatch(ctx context.Context, req models.BatchIssueRequest, actor *models.JWTClaims) (*dto.BatchIssueResponse, error)
	Verify(ctx context.Context, code string) (*dto.DocumentVerification, error)
	Download(ctx context.Context, token string) (*dto.DocumentFile, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.IssuedDocument, error)
}

// DocumentHandler issues, verifies and serves institutional documents.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Issue godoc
// @Summary Issue a document
// @Description Renders a report card or an enrollment declaration as PDF with a validation code
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.IssueDocumentRequest true "Document request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Issue(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.IssueDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document payload"))
		return
	}
	doc, err := h.service.Issue(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Batch godoc
// @Summary Queue report cards for a class
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BatchIssueRequest true "Batch request"
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/batch [post]
func (h *DocumentHandler) Batch(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.BatchIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	result, err := h.service.IssueBatch(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// Verify godoc
// @Summary Verify a validation code
// @Description Public lookup printed on every issued document. Unknown codes answer valid=false.
// @Tags Documents
// @Produce json
// @Param code path string true "Validation code"
// @Success 200 {object} response.Envelope
// @Router /documents/verify/{code} [get]
func (h *DocumentHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download an issued document
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Content)
}

// ListForStudent godoc
// @Summary Documents issued for a student
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/documents [get]
func (h *DocumentHandler) ListForStudent(c *gin.Context) {
	docs, err := h.service.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}
