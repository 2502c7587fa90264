package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/pkg/response"
)

type exportService interface {
	ClassPerformance(ctx context.Context, classID, format string) (*dto.DocumentFile, error)
}

// ExportHandler streams class performance listings.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ClassPerformance godoc
// @Summary Export class performance
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/performance/export [get]
func (h *ExportHandler) ClassPerformance(c *gin.Context) {
	file, err := h.service.ClassPerformance(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Content)
}
