// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/utils"
	"gorm.io/gorm"
)

// ClientRepositoryImpl implements ClientRepository interface
type ClientRepositoryImpl struct {
	*BaseRepository[models.Client, models.ClientFilter]
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &ClientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Client, models.ClientFilter](db),
	}
}

// ByEmail retrieves a client by email address. Lookup is case-normalized.
func (r *ClientRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Client, error) {
	normalized := utils.NormalizeEmail(email)
	filter := models.ClientFilter{Email: &normalized}
	clients, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find client by email: %w", err)
	}

	if len(clients) == 0 {
		return nil, nil
	}

	return clients[0], nil
}

// UpdatePassword replaces the client's stored password hash
func (r *ClientRepositoryImpl) UpdatePassword(ctx context.Context, clientID uint, passwordHash string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to update client password: %w", err)
	}

	return nil
}

// UpdateLastLogin stamps the client's last successful login time
func (r *ClientRepositoryImpl) UpdateLastLogin(ctx context.Context, clientID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]any{"last_login_at": at, "updated_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to update client last login: %w", err)
	}

	return nil
}

// UpdateProfile applies a partial update of profile columns
func (r *ClientRepositoryImpl) UpdateProfile(ctx context.Context, clientID uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	db := r.getDB(ctx)

	updates["updated_at"] = utils.UTCNow()
	err := db.Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update client profile: %w", err)
	}

	return nil
}

// ByFilter retrieves clients matching the filter criteria
func (r *ClientRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	db := r.getDB(ctx)

	query := r.applyFilter(db.Model(&models.Client{}), filter)
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

	var clients []*models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to find clients by filter: %w", err)
	}

	return clients, nil
}

// Count returns the number of clients matching the filter
func (r *ClientRepositoryImpl) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.Client{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}

	return count, nil
}

// Exists checks if any client matching the filter exists
func (r *ClientRepositoryImpl) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ClientRepositoryImpl) applyFilter(query *gorm.DB, filter models.ClientFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsEmailVerified != nil {
		query = query.Where("is_email_verified = ?", *filter.IsEmailVerified)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.LastLoginAfter != nil {
		query = query.Where("last_login_at > ?", *filter.LastLoginAfter)
	}
	if filter.LastLoginBefore != nil {
		query = query.Where("last_login_at < ?", *filter.LastLoginBefore)
	}
	return query
}
