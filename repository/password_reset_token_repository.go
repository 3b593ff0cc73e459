// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manzil-stays/manzil-api/models"
	"gorm.io/gorm"
)

// ErrTokenAlreadyUsed reports that a reset token was consumed by an
// earlier request
var ErrTokenAlreadyUsed = errors.New("reset token already used")

// PasswordResetTokenRepositoryImpl implements PasswordResetTokenRepository interface
type PasswordResetTokenRepositoryImpl struct {
	*BaseRepository[models.PasswordResetToken, models.PasswordResetTokenFilter]
}

// NewPasswordResetTokenRepository creates a new password reset token repository
func NewPasswordResetTokenRepository(db *gorm.DB) PasswordResetTokenRepository {
	return &PasswordResetTokenRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PasswordResetToken, models.PasswordResetTokenFilter](db),
	}
}

// ByToken retrieves a reset token row by its opaque token value
func (r *PasswordResetTokenRepositoryImpl) ByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	filter := models.PasswordResetTokenFilter{Token: &token}
	tokens, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}

	if len(tokens) == 0 {
		return nil, nil
	}

	return tokens[0], nil
}

// MarkUsed consumes the token. The used_at IS NULL guard makes consumption
// exclusive: when another request already claimed the token the update
// matches no rows and ErrTokenAlreadyUsed is returned, so a token can
// never be spent twice even by concurrent transactions.
func (r *PasswordResetTokenRepositoryImpl) MarkUsed(ctx context.Context, tokenID uint, at time.Time) error {
	db := r.getDB(ctx)

	result := db.Model(&models.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark reset token used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTokenAlreadyUsed
	}

	return nil
}

// SupersedeActive voids every unconsumed token belonging to the client.
// Issuing a new token always supersedes the old ones, so at most one
// consumable token exists per client at any time.
func (r *PasswordResetTokenRepositoryImpl) SupersedeActive(ctx context.Context, clientID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.PasswordResetToken{}).
		Where("client_id = ? AND used_at IS NULL", clientID).
		Update("used_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to supersede active reset tokens: %w", err)
	}

	return nil
}

// ByFilter retrieves reset tokens matching the filter criteria
func (r *PasswordResetTokenRepositoryImpl) ByFilter(ctx context.Context, filter models.PasswordResetTokenFilter, orderBy string, limit, offset int) ([]*models.PasswordResetToken, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.PasswordResetToken{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("id DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var tokens []*models.PasswordResetToken
	if err := query.Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to find reset tokens by filter: %w", err)
	}

	return tokens, nil
}

// Count returns the number of reset tokens matching the filter
func (r *PasswordResetTokenRepositoryImpl) Count(ctx context.Context, filter models.PasswordResetTokenFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.PasswordResetToken{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reset tokens: %w", err)
	}

	return count, nil
}

// Exists checks if any reset token matching the filter exists
func (r *PasswordResetTokenRepositoryImpl) Exists(ctx context.Context, filter models.PasswordResetTokenFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *PasswordResetTokenRepositoryImpl) applyFilter(query *gorm.DB, filter models.PasswordResetTokenFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Token != nil {
		query = query.Where("token = ?", *filter.Token)
	}
	if filter.Unused != nil {
		if *filter.Unused {
			query = query.Where("used_at IS NULL")
		} else {
			query = query.Where("used_at IS NOT NULL")
		}
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	return query
}
