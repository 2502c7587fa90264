package models

import "time"

// UserRole is the closed set of profiles a user can act as.
type UserRole string

const (
	RoleAluno       UserRole = "ALUNO"
	RoleProfessor   UserRole = "PROFESSOR"
	RoleSecretaria  UserRole = "SECRETARIA"
	RoleCoordenacao UserRole = "COORDENACAO"
)

// Roles lists every valid role.
var Roles = []UserRole{RoleAluno, RoleProfessor, RoleSecretaria, RoleCoordenacao}

// Valid reports whether the role belongs to the closed role set.
func (r UserRole) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to the school administration.
func (r UserRole) IsStaff() bool {
	return r == RoleSecretaria || r == RoleCoordenacao
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	StudentID    *string    `db:"student_id" json:"student_id,omitempty"`
	TeacherID    *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
