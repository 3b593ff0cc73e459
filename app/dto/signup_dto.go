// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// RegisterRequest represents the client registration form data
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`

	FirstName string  `json:"first_name" validate:"required,max=255"`
	LastName  string  `json:"last_name" validate:"required,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`

	// Role defaults to guest when omitted
	Role              *string `json:"role,omitempty" validate:"omitempty,oneof=guest owner"`
	PreferredLanguage *string `json:"preferred_language,omitempty" validate:"omitempty,oneof=ar en"`
}

// RegisterResponse represents the response after successful registration.
// Registration signs the client in, so the response mirrors login.
type RegisterResponse struct {
	Client    ClientInfo `json:"client"`
	ExpiresAt time.Time  `json:"expires_at" example:"2024-02-14T16:30:00Z"`
}
