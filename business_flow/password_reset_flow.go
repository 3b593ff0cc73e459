// Package businessflow contains the core business logic and use cases for session workflows
package businessflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
	"gorm.io/gorm"
)

// ResetTokenStatus reports the state of a reset token without consuming it
type ResetTokenStatus struct {
	Valid     bool
	Email     string
	ExpiresAt time.Time
}

// PasswordResetFlow handles the out-of-band password recovery process.
// Reset links are relayed through the site operator rather than mailed
// directly, matching how bookings are handled on the rest of the site.
type PasswordResetFlow interface {
	RequestReset(ctx context.Context, request *dto.ForgotPasswordRequest, metadata *ClientMetadata) error
	VerifyToken(ctx context.Context, token string) (*ResetTokenStatus, error)
	ResetPassword(ctx context.Context, request *dto.ResetPasswordRequest, metadata *ClientMetadata) (*dto.ResetPasswordResponse, error)
}

// PasswordResetFlowImpl implements the password reset business flow
type PasswordResetFlowImpl struct {
	clientRepo      repository.ClientRepository
	resetTokenRepo  repository.PasswordResetTokenRepository
	auditRepo       repository.AuditLogRepository
	passwordSvc     services.PasswordService
	notificationSvc services.NotificationService
	db              *gorm.DB
}

// NewPasswordResetFlow creates a new password reset flow instance
func NewPasswordResetFlow(
	clientRepo repository.ClientRepository,
	resetTokenRepo repository.PasswordResetTokenRepository,
	auditRepo repository.AuditLogRepository,
	passwordSvc services.PasswordService,
	notificationSvc services.NotificationService,
	db *gorm.DB,
) PasswordResetFlow {
	return &PasswordResetFlowImpl{
		clientRepo:      clientRepo,
		resetTokenRepo:  resetTokenRepo,
		auditRepo:       auditRepo,
		passwordSvc:     passwordSvc,
		notificationSvc: notificationSvc,
		db:              db,
	}
}

// RequestReset issues a fresh reset token for the account, voiding any
// earlier unconsumed tokens. A request for an unknown or deactivated email
// returns nil all the same, so the endpoint cannot be used to probe which
// emails have accounts.
func (pf *PasswordResetFlowImpl) RequestReset(ctx context.Context, request *dto.ForgotPasswordRequest, metadata *ClientMetadata) error {
	client, err := pf.clientRepo.ByEmail(ctx, request.Email)
	if err != nil {
		return NewBusinessError("RESET_REQUEST_FAILED", "Password reset request failed", err)
	}
	if client == nil || !utils.IsTrue(client.IsActive) {
		// Indistinguishable from success
		return nil
	}

	var token *models.PasswordResetToken

	err = repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		now := utils.UTCNow()

		// Issuing a new token supersedes all live ones
		if err := pf.resetTokenRepo.SupersedeActive(ctx, client.ID, now); err != nil {
			return err
		}

		value, err := generateResetToken()
		if err != nil {
			return err
		}

		token = &models.PasswordResetToken{
			ClientID:  client.ID,
			Token:     value,
			ExpiresAt: now.Add(utils.ResetTokenTTL),
			CreatedAt: now,
		}

		return pf.resetTokenRepo.Save(ctx, token)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Password reset request failed: %s", err.Error())
		_ = pf.logResetAttempt(ctx, client, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)

		return NewBusinessError("RESET_REQUEST_FAILED", "Password reset request failed", err)
	}

	// The operator relays the link to the client out of band. Delivery
	// failure is logged but does not surface to the requester.
	subject := "Password reset requested"
	message := fmt.Sprintf("Client %s (%s) requested a password reset. Token: %s. Expires at %s.",
		client.FullName(), client.Email, token.Token, token.ExpiresAt.Format(time.RFC3339))
	if err := pf.notificationSvc.NotifyOperator(subject, message); err != nil {
		errMsg := fmt.Sprintf("Reset token issued but operator notification failed: %v", err)
		_ = pf.logResetAttempt(ctx, client, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)
	}

	msg := fmt.Sprintf("Password reset requested for client: %d", client.ID)
	_ = pf.logResetAttempt(ctx, client, models.AuditActionPasswordResetRequested, msg, true, nil, metadata)

	return nil
}

// VerifyToken reports whether a reset token can still be exchanged
func (pf *PasswordResetFlowImpl) VerifyToken(ctx context.Context, tokenValue string) (*ResetTokenStatus, error) {
	if len(tokenValue) != utils.ResetTokenBytes*2 {
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Reset token is invalid", ErrResetTokenNotFound)
	}

	token, err := pf.resetTokenRepo.ByToken(ctx, tokenValue)
	if err != nil {
		return nil, NewBusinessError("RESET_TOKEN_LOOKUP_FAILED", "Failed to look up reset token", err)
	}
	if token == nil {
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Reset token is invalid", ErrResetTokenNotFound)
	}
	if token.IsUsed() {
		return nil, NewBusinessError("RESET_TOKEN_USED", "Reset token has already been used", ErrResetTokenUsed)
	}
	if token.IsExpired() {
		return nil, NewBusinessError("RESET_TOKEN_EXPIRED", "Reset token has expired", ErrResetTokenExpired)
	}

	client, err := pf.clientRepo.ByID(ctx, token.ClientID)
	if err != nil {
		return nil, NewBusinessError("RESET_TOKEN_LOOKUP_FAILED", "Failed to look up reset token", err)
	}
	if client == nil {
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Reset token is invalid", ErrResetTokenNotFound)
	}

	// The email is the only client field the reset form may see
	return &ResetTokenStatus{
		Valid:     true,
		Email:     client.Email,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// ResetPassword consumes a reset token and stores the new password
func (pf *PasswordResetFlowImpl) ResetPassword(ctx context.Context, request *dto.ResetPasswordRequest, metadata *ClientMetadata) (*dto.ResetPasswordResponse, error) {
	if len(request.NewPassword) < utils.MinPasswordLength {
		return nil, NewBusinessError("RESET_PASSWORD_VALIDATION_FAILED", "Password reset validation failed", ErrPasswordTooShort)
	}
	if request.NewPassword != request.ConfirmPassword {
		return nil, NewBusinessError("RESET_PASSWORD_VALIDATION_FAILED", "Password reset validation failed", ErrPasswordMismatch)
	}

	var client *models.Client
	var changedAt time.Time

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		token, err := pf.resetTokenRepo.ByToken(ctx, request.Token)
		if err != nil {
			return err
		}
		if token == nil {
			return ErrResetTokenNotFound
		}
		if token.IsUsed() {
			return ErrResetTokenUsed
		}
		if token.IsExpired() {
			return ErrResetTokenExpired
		}

		client, err = pf.clientRepo.ByID(ctx, token.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return ErrClientNotFound
		}
		if !utils.IsTrue(client.IsActive) {
			return ErrAccountDeactivated
		}

		passwordHash, err := pf.passwordSvc.Hash(request.NewPassword)
		if err != nil {
			return err
		}

		changedAt = utils.UTCNow()

		// A concurrent request may have consumed the token between the
		// read above and this update; the guarded update decides the winner.
		if err := pf.resetTokenRepo.MarkUsed(ctx, token.ID, changedAt); err != nil {
			if errors.Is(err, repository.ErrTokenAlreadyUsed) {
				return ErrResetTokenUsed
			}
			return err
		}

		return pf.clientRepo.UpdatePassword(ctx, client.ID, passwordHash)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Password reset failed: %s", err.Error())
		_ = pf.logResetAttempt(ctx, client, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("RESET_PASSWORD_FAILED", "Password reset failed", err)
	}

	msg := fmt.Sprintf("Password reset completed for client: %d", client.ID)
	_ = pf.logResetAttempt(ctx, client, models.AuditActionPasswordResetCompleted, msg, true, nil, metadata)

	resp := &dto.ResetPasswordResponse{
		Success: true,
		Message: "New password saved",
	}
	resp.Data.PasswordChangedAt = changedAt
	return resp, nil
}

// generateResetToken produces a hex-encoded token from 48 random bytes
func generateResetToken() (string, error) {
	buf := make([]byte, utils.ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (pf *PasswordResetFlowImpl) logResetAttempt(ctx context.Context, client *models.Client, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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
