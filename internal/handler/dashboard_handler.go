package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/dto"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/response"
)

type dashboardService interface {
	Aluno(ctx context.Context, actor *models.JWTClaims) (*dto.AlunoDashboard, error)
	Professor(ctx context.Context, actor *models.JWTClaims) (*dto.ProfessorDashboard, error)
	Secretaria(ctx context.Context) (*dto.SecretariaDashboard, error)
	Coordenacao(ctx context.Context) (*dto.CoordenacaoDashboard, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Me godoc
// @Summary Dashboard of the current user
// @Description Dispatches to the dashboard of the role carried by the token
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	switch claims.Role {
	case models.RoleAluno:
		h.Aluno(c)
	case models.RoleProfessor:
		h.Professor(c)
	case models.RoleSecretaria:
		h.Secretaria(c)
	case models.RoleCoordenacao:
		h.Coordenacao(c)
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}

// Aluno godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/aluno [get]
func (h *DashboardHandler) Aluno(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	result, err := h.service.Aluno(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, false)
}

// Professor godoc
// @Summary Teacher dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/professor [get]
func (h *DashboardHandler) Professor(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	result, err := h.service.Professor(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, false)
}

// Secretaria godoc
// @Summary School office dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/secretaria [get]
func (h *DashboardHandler) Secretaria(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, err := h.service.Secretaria(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, false)
}

// Coordenacao godoc
// @Summary Coordination dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/coordenacao [get]
func (h *DashboardHandler) Coordenacao(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, err := h.service.Coordenacao(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, start, result, false)
}
