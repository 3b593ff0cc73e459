// Package businessflow contains the core business logic and use cases for session workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
	"gorm.io/gorm"
)

// ProfileFlow handles the authenticated client's own record
type ProfileFlow interface {
	GetProfile(ctx context.Context, clientID uint) (*dto.GetProfileResponse, error)
	UpdateProfile(ctx context.Context, clientID uint, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
	ChangePassword(ctx context.Context, clientID uint, request *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error)
}

// ProfileFlowImpl implements the profile business flow
type ProfileFlowImpl struct {
	clientRepo  repository.ClientRepository
	auditRepo   repository.AuditLogRepository
	passwordSvc services.PasswordService
	db          *gorm.DB
}

// NewProfileFlow creates a new profile flow instance
func NewProfileFlow(
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditLogRepository,
	passwordSvc services.PasswordService,
	db *gorm.DB,
) ProfileFlow {
	return &ProfileFlowImpl{
		clientRepo:  clientRepo,
		auditRepo:   auditRepo,
		passwordSvc: passwordSvc,
		db:          db,
	}
}

// GetProfile returns the client's own record
func (pf *ProfileFlowImpl) GetProfile(ctx context.Context, clientID uint) (*dto.GetProfileResponse, error) {
	client, err := pf.clientRepo.ByID(ctx, clientID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_LOOKUP_FAILED", "Failed to load profile", err)
	}
	if client == nil {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}

	return &dto.GetProfileResponse{Client: ToClientInfo(*client)}, nil
}

// UpdateProfile applies a partial update; nil request fields stay untouched
func (pf *ProfileFlowImpl) UpdateProfile(ctx context.Context, clientID uint, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	updates := make(map[string]any)
	if request.FirstName != nil {
		updates["first_name"] = *request.FirstName
	}
	if request.LastName != nil {
		updates["last_name"] = *request.LastName
	}
	if request.Phone != nil {
		updates["phone"] = *request.Phone
	}
	if request.AvatarURL != nil {
		updates["avatar_url"] = *request.AvatarURL
	}
	if request.Company != nil {
		updates["company"] = *request.Company
	}
	if request.Bio != nil {
		updates["bio"] = *request.Bio
	}
	if request.PreferredLanguage != nil {
		updates["preferred_language"] = *request.PreferredLanguage
	}

	var client *models.Client

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		client, err = pf.clientRepo.ByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return ErrClientNotFound
		}

		if len(updates) == 0 {
			return nil
		}

		if err := pf.clientRepo.UpdateProfile(ctx, clientID, updates); err != nil {
			return err
		}

		client, err = pf.clientRepo.ByID(ctx, clientID)
		return err
	})

	if err != nil {
		errMsg := fmt.Sprintf("Profile update failed: %s", err.Error())
		_ = pf.logProfileAction(ctx, client, models.AuditActionProfileUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Profile update failed", err)
	}

	msg := fmt.Sprintf("Profile updated for client: %d", clientID)
	_ = pf.logProfileAction(ctx, client, models.AuditActionProfileUpdated, msg, true, nil, metadata)

	return &dto.GetProfileResponse{Client: ToClientInfo(*client)}, nil
}

// ChangePassword rotates the password after verifying the current one
func (pf *ProfileFlowImpl) ChangePassword(ctx context.Context, clientID uint, request *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error) {
	if len(request.NewPassword) < utils.MinPasswordLength {
		return nil, NewBusinessError("CHANGE_PASSWORD_VALIDATION_FAILED", "Password change validation failed", ErrPasswordTooShort)
	}
	if request.NewPassword != request.ConfirmPassword {
		return nil, NewBusinessError("CHANGE_PASSWORD_VALIDATION_FAILED", "Password change validation failed", ErrPasswordMismatch)
	}

	var client *models.Client
	resp := &dto.ChangePasswordResponse{}

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		var err error
		client, err = pf.clientRepo.ByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return ErrClientNotFound
		}

		if !pf.passwordSvc.Verify(client.PasswordHash, request.CurrentPassword) {
			return ErrIncorrectPassword
		}

		passwordHash, err := pf.passwordSvc.Hash(request.NewPassword)
		if err != nil {
			return err
		}

		resp.PasswordChangedAt = utils.UTCNow()
		return pf.clientRepo.UpdatePassword(ctx, clientID, passwordHash)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Password change failed: %s", err.Error())
		_ = pf.logProfileAction(ctx, client, models.AuditActionPasswordChanged, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CHANGE_PASSWORD_FAILED", "Password change failed", err)
	}

	msg := fmt.Sprintf("Password changed for client: %d", clientID)
	_ = pf.logProfileAction(ctx, client, models.AuditActionPasswordChanged, msg, true, nil, metadata)

	return resp, nil
}

func (pf *ProfileFlowImpl) logProfileAction(ctx context.Context, client *models.Client, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var clientID *uint
	if client != nil {
		clientID = &client.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ClientID:     clientID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	if metadata != nil && metadata.RequestID != "" {
		audit.RequestID = &metadata.RequestID
	}

	return pf.auditRepo.Save(ctx, audit)
}
