package dto

import "time"

// LoginRequest is an operator's username and password.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries the authorization code returned by Google.
type GoogleLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateOperatorRequest defines a new operator account.
type CreateOperatorRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
