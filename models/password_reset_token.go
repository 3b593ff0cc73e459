// Package models contains domain entities and business models for the session subsystem
package models

import (
	"time"
)

// PasswordResetToken is a single-use credential for out-of-band password recovery.
// Rows are never deleted; consumed and superseded tokens stay as an audit trail.
type PasswordResetToken struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"not null;index:idx_reset_tokens_client_id" json:"client_id"`
	Client   Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`

	Token     string     `gorm:"size:96;not null;uniqueIndex:uk_reset_tokens_token" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index:idx_reset_tokens_expires_at" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_reset_tokens_created_at" json:"created_at"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// PasswordResetTokenFilter represents filter criteria for reset token queries
type PasswordResetTokenFilter struct {
	ID            *uint
	ClientID      *uint
	Token         *string
	Unused        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

func (t *PasswordResetToken) IsUsed() bool {
	return t.UsedAt != nil
}

func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}

// IsConsumable reports whether the token may still be exchanged for a password change
func (t *PasswordResetToken) IsConsumable() bool {
	return !t.IsUsed() && !t.IsExpired()
}
