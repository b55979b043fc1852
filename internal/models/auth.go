package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest holds the self-registration payload. Any role supplied by
// the client is ignored; registration always yields a student.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Patronymic string `json:"patronymic" validate:"max=100"`
	Role       string `json:"role"`
	GroupName  string `json:"group_name" validate:"max=50"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the issued token and public user view.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Patronymic string   `json:"patronymic,omitempty"`
	GroupName  string   `json:"group_name,omitempty"`
	jwt.RegisteredClaims
}
