package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type fakeAuthSrv struct {
	resp    *models.LoginResponse
	profile *models.UserInfo
	err     error
}

func (f *fakeAuthSrv) Profile(context.Context, *models.JWTClaims) (*models.UserInfo, error) {
	return f.profile, f.err
}

func (f *fakeAuthSrv) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return f.resp, f.err
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{resp: &models.LoginResponse{
		AccessToken: "token",
		ExpiresIn:   3600,
		User:        models.UserInfo{ID: "user-ana", Role: models.RoleAluno},
	}})

	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "ana@senai.br", "password": "secret"})
	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	assert.Equal(t, "token", envelope.Data["access_token"])
	user := envelope.Data["user"].(map[string]interface{})
	assert.Equal(t, "ALUNO", user["role"])
}

func TestAuthHandlerLoginErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", appErrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown role", appErrors.Clone(appErrors.ErrForbidden, "user has no valid profile"), http.StatusForbidden},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(&fakeAuthSrv{err: tc.err})
			c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "ana@senai.br", "password": "x"})
			handler.Login(c)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthHandlerMe(t *testing.T) {
	studentID := "stu-ana"
	handler := NewAuthHandler(&fakeAuthSrv{profile: &models.UserInfo{ID: "user-ana", Role: models.RoleAluno, StudentID: &studentID}})

	c, rec := newTestContext(http.MethodGet, "/auth/me", nil)
	withClaims(c, aluno)
	handler.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	assert.Equal(t, "stu-ana", envelope.Data["student_id"])
	assert.NotContains(t, envelope.Data, "teacher_id")
}

func TestAuthHandlerMeInactive(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrInactiveAccount})

	c, rec := newTestContext(http.MethodGet, "/auth/me", nil)
	withClaims(c, aluno)
	handler.Me(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
