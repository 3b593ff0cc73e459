// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"time"
)

// LoginRequest represents the request payload for client login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"guest@example.com"`
	Password string `json:"password" validate:"required,min=6,max=100" example:"SecurePass123"`
}

// ClientInfo represents client information returned in session responses
type ClientInfo struct {
	ID                uint    `json:"id" example:"123"`
	UUID              string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email             string  `json:"email" example:"guest@example.com"`
	FirstName         string  `json:"first_name" example:"Sara"`
	LastName          string  `json:"last_name" example:"Haddad"`
	Phone             *string `json:"phone,omitempty" example:"+96279123456"`
	AvatarURL         *string `json:"avatar_url,omitempty"`
	Company           *string `json:"company,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	Role              string  `json:"role" example:"guest"`
	PreferredLanguage string  `json:"preferred_language" example:"ar"`
	IsActive          *bool   `json:"is_active" example:"true"`
	IsEmailVerified   *bool   `json:"is_email_verified" example:"false"`
	CreatedAt         string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	LastLoginAt       *string `json:"last_login_at,omitempty" example:"2024-01-15T16:30:00Z"`
}

// LoginResponse represents the successful login response. The session itself
// travels in a cookie, so the body only carries the client profile.
type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Login successful"`
	Data    struct {
		Client    ClientInfo `json:"client"`
		ExpiresAt time.Time  `json:"expires_at" example:"2024-02-14T16:30:00Z"`
	} `json:"data"`
}

// ForgotPasswordRequest represents the request to initiate password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255" example:"guest@example.com"`
}

// ResetPasswordRequest represents the request to set a new password with a reset token
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required,len=96,hexadecimal"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=100" example:"NewSecurePass123"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword" example:"NewSecurePass123"`
}

// ResetPasswordResponse represents the response after successful password reset
type ResetPasswordResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"New password saved"`
	Data    struct {
		PasswordChangedAt time.Time `json:"password_changed_at" example:"2024-01-15T16:30:00Z"`
	} `json:"data"`
}

// VerifyResetTokenResponse reports whether a reset token is still exchangeable
type VerifyResetTokenResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Reset token is valid"`
	Data    struct {
		Valid     bool      `json:"valid" example:"true"`
		Email     string    `json:"email" example:"guest@example.com"`
		ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T17:30:00Z"`
	} `json:"data"`
}

// Common error codes for session operations
const (
	ErrorInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrorAccountDeactivated  = "ACCOUNT_DEACTIVATED"
	ErrorEmailAlreadyExists  = "EMAIL_ALREADY_EXISTS"
	ErrorInvalidResetToken   = "INVALID_RESET_TOKEN"
	ErrorResetTokenExpired   = "RESET_TOKEN_EXPIRED"
	ErrorResetTokenUsed      = "RESET_TOKEN_USED"
	ErrorTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	ErrorSessionRequired     = "SESSION_REQUIRED"
	ErrorValidationFailed    = "VALIDATION_ERROR"
	ErrorInternalServerError = "INTERNAL_SERVER_ERROR"
)

// NewClientInfo builds the response view of a client record
func NewClientInfo(id uint, uuid, email, firstName, lastName, role, preferredLanguage string, phone, avatarURL, company, bio *string, isActive, isEmailVerified *bool, createdAt time.Time, lastLoginAt *time.Time) ClientInfo {
	info := ClientInfo{
		ID:                id,
		UUID:              uuid,
		Email:             email,
		FirstName:         firstName,
		LastName:          lastName,
		Phone:             phone,
		AvatarURL:         avatarURL,
		Company:           company,
		Bio:               bio,
		Role:              role,
		PreferredLanguage: preferredLanguage,
		IsActive:          isActive,
		IsEmailVerified:   isEmailVerified,
		CreatedAt:         createdAt.Format(time.RFC3339),
	}

	if lastLoginAt != nil {
		formatted := lastLoginAt.Format(time.RFC3339)
		info.LastLoginAt = &formatted
	}

	return info
}
