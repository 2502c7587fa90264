package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/middleware"
	"github.com/senai-sm/school-manager/internal/models"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type listEnvelope struct {
	Data []map[string]interface{} `json:"data"`
	Meta map[string]interface{}   `json:"meta"`
}

func newTestContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(middleware.ContextUserKey, claims)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func f64(v float64) *float64 { return &v }

var (
	aluno       = &models.JWTClaims{UserID: "user-ana", Role: models.RoleAluno, StudentID: "stu-ana"}
	professor   = &models.JWTClaims{UserID: "user-prof", Role: models.RoleProfessor, TeacherID: "teacher-1"}
	secretaria  = &models.JWTClaims{UserID: "user-sec", Role: models.RoleSecretaria}
	coordenacao = &models.JWTClaims{UserID: "user-coord", Role: models.RoleCoordenacao}
)
