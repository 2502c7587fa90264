package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/dto"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type fakeExportSrv struct {
	file       *dto.DocumentFile
	err        error
	lastFormat string
}

func (f *fakeExportSrv) ClassPerformance(_ context.Context, _ string, format string) (*dto.DocumentFile, error) {
	f.lastFormat = format
	return f.file, f.err
}

func TestExportHandlerCSV(t *testing.T) {
	srv := &fakeExportSrv{file: &dto.DocumentFile{Filename: "desempenho-inf-1a.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Aluno;Média\n")}}
	handler := NewExportHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/classes/class-1/performance/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	handler.ClassPerformance(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.lastFormat)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "desempenho-inf-1a.csv")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestExportHandlerBadFormat(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")})

	c, rec := newTestContext(http.MethodGet, "/classes/class-1/performance/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	handler.ClassPerformance(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
