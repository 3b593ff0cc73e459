// Package models contains domain entities and business models for the session subsystem
package models

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_clients_uuid" json:"uuid"`

	// Email is stored lowercased; uniqueness is case-insensitive by construction
	Email        string `gorm:"size:255;not null;uniqueIndex:uk_clients_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	FirstName string  `gorm:"size:255;not null" json:"first_name"`
	LastName  string  `gorm:"size:255;not null" json:"last_name"`
	Phone     *string `gorm:"size:20" json:"phone,omitempty"`
	AvatarURL *string `gorm:"size:512" json:"avatar_url,omitempty"`
	Company   *string `gorm:"size:255" json:"company,omitempty"`
	Bio       *string `gorm:"type:text" json:"bio,omitempty"`

	// Role is guest or owner
	Role              string `gorm:"size:16;not null;default:guest;index:idx_clients_role" json:"role"`
	PreferredLanguage string `gorm:"size:5;not null;default:ar" json:"preferred_language"`

	IsActive        *bool `gorm:"default:true;index:idx_clients_is_active" json:"is_active"`
	IsEmailVerified *bool `gorm:"default:false" json:"is_email_verified"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_clients_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_clients_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	ResetTokens []PasswordResetToken `gorm:"foreignKey:ClientID" json:"-"`
	AuditLogs   []AuditLog           `gorm:"foreignKey:ClientID" json:"-"`
}

func (Client) TableName() string {
	return "clients"
}

// Client role constants
const (
	ClientRoleGuest = "guest"
	ClientRoleOwner = "owner"
)

// Preferred language constants
const (
	LanguageArabic  = "ar"
	LanguageEnglish = "en"
)

// ClientFilter represents filter criteria for client queries
type ClientFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	Email           *string
	Role            *string
	IsActive        *bool
	IsEmailVerified *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
}

func (c *Client) IsGuest() bool {
	return c.Role == ClientRoleGuest
}

func (c *Client) IsOwner() bool {
	return c.Role == ClientRoleOwner
}

func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
