package dto

import "time"

// UpdateProfileRequest carries a partial profile update; nil fields are untouched
type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=255"`
	LastName          *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=255"`
	Phone             *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	AvatarURL         *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=512"`
	Company           *string `json:"company,omitempty" validate:"omitempty,max=255"`
	Bio               *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	PreferredLanguage *string `json:"preferred_language,omitempty" validate:"omitempty,oneof=ar en"`
}

// ChangePasswordRequest carries an authenticated password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=6,max=100"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordResponse reports when the password was rotated
type ChangePasswordResponse struct {
	PasswordChangedAt time.Time `json:"password_changed_at"`
}

// GetProfileResponse wraps the authenticated client's own record
type GetProfileResponse struct {
	Client ClientInfo `json:"client"`
}
