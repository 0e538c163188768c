package model

import "time"

// User is a registered account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// UserSummary is the public view of a user returned with tokens.
type UserSummary struct {
	Email string `json:"email"`
	ID    int    `json:"id"`
}

// AuthResponse is returned after registration or login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}
