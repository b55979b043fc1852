package models

import (
	"database/sql"
	"time"
)

// UserRole represents the available access tiers.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// ValidRole reports whether the role is one of the closed set.
func ValidRole(role UserRole) bool {
	return role == RoleStudent || role == RoleAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	Patronymic   sql.NullString `db:"patronymic" json:"-"`
	Role         UserRole       `db:"role" json:"role"`
	GroupName    sql.NullString `db:"group_name" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// UserView is the public projection of a user returned by the API.
type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Patronymic string    `json:"patronymic,omitempty"`
	Role       UserRole  `json:"role"`
	GroupName  string    `json:"group_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// View converts the stored record into its public projection.
func (u *User) View() UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Patronymic: u.Patronymic.String,
		Role:       u.Role,
		GroupName:  u.GroupName.String,
		CreatedAt:  u.CreatedAt,
	}
}

// UserSearchResult is the trimmed projection returned by user search.
type UserSearchResult struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Patronymic string `json:"patronymic,omitempty"`
	GroupName  string `json:"group_name,omitempty"`
}
