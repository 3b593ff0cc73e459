// Package businessflow contains the core business logic and use cases for session workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
	"gorm.io/gorm"
)

// RegisterResult carries the response body plus the session token.
// Registration signs the new client in immediately.
type RegisterResult struct {
	Client    dto.ClientInfo
	Token     string
	ExpiresAt time.Time
}

// SignupFlow handles client registration
type SignupFlow interface {
	Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*RegisterResult, error)
}

// SignupFlowImpl implements the registration business flow
type SignupFlowImpl struct {
	clientRepo   repository.ClientRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.SessionTokenService
	passwordSvc  services.PasswordService
	db           *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.SessionTokenService,
	passwordSvc services.PasswordService,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		clientRepo:   clientRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		passwordSvc:  passwordSvc,
		db:           db,
	}
}

// Register creates a new client account and signs it in
func (sf *SignupFlowImpl) Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*RegisterResult, error) {
	if err := sf.validateRegisterRequest(request); err != nil {
		return nil, NewBusinessError("REGISTER_VALIDATION_FAILED", "Registration validation failed", err)
	}

	var client *models.Client

	result, err := sf.withRegisterTransaction(ctx, func(ctx context.Context) (*RegisterResult, error) {
		email := utils.NormalizeEmail(request.Email)

		existing, err := sf.clientRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailAlreadyExists
		}

		passwordHash, err := sf.passwordSvc.Hash(request.Password)
		if err != nil {
			return nil, err
		}

		role := models.ClientRoleGuest
		if request.Role != nil {
			role = *request.Role
		}
		language := models.LanguageArabic
		if request.PreferredLanguage != nil {
			language = *request.PreferredLanguage
		}

		now := utils.UTCNow()
		client = &models.Client{
			UUID:              uuid.New(),
			Email:             email,
			PasswordHash:      passwordHash,
			FirstName:         request.FirstName,
			LastName:          request.LastName,
			Phone:             request.Phone,
			Role:              role,
			PreferredLanguage: language,
			IsActive:          utils.ToPtr(true),
			IsEmailVerified:   utils.ToPtr(false),
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := sf.clientRepo.Save(ctx, client); err != nil {
			return nil, err
		}

		token, expiresAt, err := sf.tokenService.Generate(client.ID, client.Role, client.Email, client.FullName())
		if err != nil {
			return nil, err
		}

		if err := sf.clientRepo.UpdateLastLogin(ctx, client.ID, now); err != nil {
			return nil, err
		}
		client.LastLoginAt = &now

		return &RegisterResult{
			Client:    ToClientInfo(*client),
			Token:     token,
			ExpiresAt: expiresAt,
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Registration failed: %s", err.Error())
		_ = sf.logRegisterAttempt(ctx, client, models.AuditActionRegisterFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REGISTER_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("Client registered successfully: %d", result.Client.ID)
	_ = sf.logRegisterAttempt(ctx, client, models.AuditActionRegisterCompleted, msg, true, nil, metadata)

	return result, nil
}

func (sf *SignupFlowImpl) validateRegisterRequest(request *dto.RegisterRequest) error {
	if len(request.Password) < utils.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if request.Password != request.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

func (sf *SignupFlowImpl) logRegisterAttempt(ctx context.Context, client *models.Client, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var clientID *uint
	if client != nil && client.ID != 0 {
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

	return sf.auditRepo.Save(ctx, audit)
}

func (sf *SignupFlowImpl) withRegisterTransaction(ctx context.Context, fn func(context.Context) (*RegisterResult, error)) (*RegisterResult, error) {
	var result *RegisterResult
	var fnErr error

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
