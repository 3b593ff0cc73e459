// Package dto
package dto

import "time"

type AdminDTO struct {
	ID          uint    `json:"id" example:"1"`
	UUID        string  `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Username    string  `json:"username" example:"admin"`
	FullName    string  `json:"full_name" example:"Site Administrator"`
	DisplayName string  `json:"display_name" example:"Admin"`
	Email       *string `json:"email,omitempty" example:"admin@example.com"`
	Role        string  `json:"role" example:"manager"`
	IsActive    *bool   `json:"is_active" example:"true"`
	CreatedAt   string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	LastLoginAt *string `json:"last_login_at,omitempty" example:"2024-01-15T16:30:00Z"`
}

// AdminLoginRequest represents the request payload for admin login
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255" example:"admin"`
	Password string `json:"password" validate:"required,min=6,max=100" example:"SecurePass123"`
}

// AdminLoginResponse represents the successful admin login response.
// The session travels in a cookie; the body carries the admin record.
type AdminLoginResponse struct {
	Admin     AdminDTO  `json:"admin"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-22T16:30:00Z"`
}

// NewAdminDTO builds the response view of an admin record
func NewAdminDTO(id uint, uuid, username, fullName, displayName, role string, email *string, isActive *bool, createdAt time.Time, lastLoginAt *time.Time) AdminDTO {
	out := AdminDTO{
		ID:          id,
		UUID:        uuid,
		Username:    username,
		FullName:    fullName,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
		IsActive:    isActive,
		CreatedAt:   createdAt.Format(time.RFC3339),
	}

	if lastLoginAt != nil {
		formatted := lastLoginAt.Format(time.RFC3339)
		out.LastLoginAt = &formatted
	}

	return out
}
