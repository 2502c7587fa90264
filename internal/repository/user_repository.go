package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/senai-sm/school-manager/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, student_id, teacher_id, active, last_login, created_at, updated_at`

// UserRepository manages persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail fetches a user by e-mail, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1", id, at); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
