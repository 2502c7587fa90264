package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/handler"
	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/internal/service"
	"github.com/senai-sm/school-manager/pkg/config"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	metrics := service.NewMetricsService()
	tokens := stubTokens{
		"aluno": {UserID: "u1", Role: models.RoleAluno, StudentID: "stu-ana"},
	}
	handlers := routeHandlers{
		auth:        handler.NewAuthHandler(nil),
		performance: handler.NewPerformanceHandler(nil),
		records:     handler.NewRecordHandler(nil),
		dashboard:   handler.NewDashboardHandler(nil),
		documents:   handler.NewDocumentHandler(nil),
		exports:     handler.NewExportHandler(nil),
		metrics:     handler.NewMetricsHandler(metrics, nil),
	}
	return newRouter(cfg, zap.NewNop(), metrics, tokens, handlers)
}

func TestRouterHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAccessControl(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"missing token", http.MethodGet, "/api/v1/institution/rollup", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/api/v1/institution/rollup", "forged", http.StatusUnauthorized},
		{"student on institution rollup", http.MethodGet, "/api/v1/institution/rollup", "aluno", http.StatusForbidden},
		{"student on another student", http.MethodGet, "/api/v1/students/stu-bruno/performance", "aluno", http.StatusForbidden},
		{"student writing records", http.MethodPut, "/api/v1/records", "aluno", http.StatusForbidden},
		{"student batch issuing", http.MethodPost, "/api/v1/documents/batch", "aluno", http.StatusForbidden},
		{"student on class export", http.MethodGet, "/api/v1/classes/class-1/performance/export", "aluno", http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/v1/nope", "aluno", http.StatusNotFound},
	}
	router := testRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRouterHidesDocsInProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
