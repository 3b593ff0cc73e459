// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/manzil-stays/manzil-api/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AdminRepository defines operations for back-office operators
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}

// ClientRepository defines operations for site clients (guests and owners)
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ByEmail(ctx context.Context, email string) (*models.Client, error)
	UpdatePassword(ctx context.Context, clientID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, clientID uint, at time.Time) error
	UpdateProfile(ctx context.Context, clientID uint, updates map[string]any) error
}

// PasswordResetTokenRepository defines operations for password reset tokens
type PasswordResetTokenRepository interface {
	Repository[models.PasswordResetToken, models.PasswordResetTokenFilter]
	ByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, tokenID uint, at time.Time) error
	SupersedeActive(ctx context.Context, clientID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByClient(ctx context.Context, clientID uint, limit int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, action string, limit int) ([]*models.AuditLog, error)
}
