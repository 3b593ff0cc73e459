// Package models contains domain entities and business models for the session subsystem
package models

import (
	"time"
)

type AuditLog struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	ClientID *uint   `gorm:"index:idx_audit_client_id" json:"client_id,omitempty"`
	Client   *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
	AdminID  *uint   `gorm:"index:idx_audit_admin_id" json:"admin_id,omitempty"`
	Admin    *Admin  `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`

	Action       string  `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Success      *bool   `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionRegisterCompleted      = "register_completed"
	AuditActionRegisterFailed         = "register_failed"
	AuditActionLoginSuccess           = "login_success"
	AuditActionLoginFailed            = "login_failed"
	AuditActionLogout                 = "logout"
	AuditActionPasswordChanged        = "password_changed"
	AuditActionPasswordResetRequested = "password_reset_requested"
	AuditActionPasswordResetCompleted = "password_reset_completed"
	AuditActionPasswordResetFailed    = "password_reset_failed"
	AuditActionProfileUpdated         = "profile_updated"
	AuditActionAdminLoginSuccess      = "admin_login_success"
	AuditActionAdminLoginFailed       = "admin_login_failed"
	AuditActionAdminLogout            = "admin_logout"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ClientID      *uint
	AdminID       *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess:      true,
		AuditActionLoginFailed:       true,
		AuditActionPasswordChanged:   true,
		AuditActionAdminLoginSuccess: true,
		AuditActionAdminLoginFailed:  true,
	}
	return securityActions[a.Action]
}
