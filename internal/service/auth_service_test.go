package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail == nil || m.userByEmail.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	studentID := "student-1"
	return &models.User{ID: "123", Email: "aluno@senai.example", FullName: "Ana", PasswordHash: string(password), Active: true, Role: role, StudentID: &studentID}
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "school-manager",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: newAuthUser(t, models.RoleAluno)}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "aluno@senai.example", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleAluno, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "123", claims.UserID)
	assert.Equal(t, models.RoleAluno, claims.Role)
	assert.Equal(t, "student-1", claims.StudentID)
	assert.Equal(t, "school-manager", claims.Issuer)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	ctx := context.Background()

	svc := newTestAuthService(&mockAuthRepo{findByEmailErr: sql.ErrNoRows})
	_, err := svc.Login(ctx, models.LoginRequest{Email: "x@senai.example", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	user := newAuthUser(t, models.RoleAluno)
	svc = newTestAuthService(&mockAuthRepo{userByEmail: user})
	_, err = svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	user.Active = false
	_, err = svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	svc = newTestAuthService(&mockAuthRepo{userByEmail: newAuthUser(t, "ADMIN")})
	_, err = svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAuthServiceValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{})
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID: "1",
		Role:   "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "1", Role: models.RoleCoordenacao})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceProfile(t *testing.T) {
	ctx := context.Background()
	user := newAuthUser(t, models.RoleAluno)
	svc := newTestAuthService(&mockAuthRepo{userByEmail: user})

	info, err := svc.Profile(ctx, &models.JWTClaims{UserID: "123"})
	require.NoError(t, err)
	assert.Equal(t, "aluno@senai.example", info.Email)
	require.NotNil(t, info.StudentID)
	assert.Equal(t, "student-1", *info.StudentID)

	_, err = svc.Profile(ctx, &models.JWTClaims{UserID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	user.Active = false
	_, err = svc.Profile(ctx, &models.JWTClaims{UserID: "123"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Profile(ctx, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
