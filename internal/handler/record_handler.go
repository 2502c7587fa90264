package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/response"
)

type recordService interface {
	Upsert(ctx context.Context, req models.UpsertStudentRecordRequest, actor *models.JWTClaims) (*models.StudentRecord, error)
}

// RecordHandler accepts grade and attendance writes.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// Upsert godoc
// @Summary Save a student record
// @Description Creates or replaces the record of a student in a subject allocation. Out-of-range values are rejected with 422.
// @Tags Records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpsertStudentRecordRequest true "Record payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /records [put]
func (h *RecordHandler) Upsert(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.UpsertStudentRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}
	record, err := h.service.Upsert(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
