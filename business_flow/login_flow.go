// Package businessflow contains the core business logic and use cases for session workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
	"gorm.io/gorm"
)

// LoginResult carries the response body plus the session token the
// handler places in the cookie. The token never appears in the body.
type LoginResult struct {
	Client    dto.ClientInfo
	Token     string
	ExpiresAt time.Time
}

// LoginFlow handles client authentication
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*LoginResult, error)
	Logout(ctx context.Context, clientID uint, metadata *ClientMetadata) error
}

// LoginFlowImpl implements the client login business flow
type LoginFlowImpl struct {
	clientRepo   repository.ClientRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.SessionTokenService
	passwordSvc  services.PasswordService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.SessionTokenService,
	passwordSvc services.PasswordService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		clientRepo:   clientRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		passwordSvc:  passwordSvc,
		db:           db,
	}
}

// Login authenticates a client with email and password.
// Unknown email and wrong password both come back as ErrIncorrectPassword;
// a deactivated account with correct credentials is reported distinctly so
// the handler can answer 403 instead of 401.
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*LoginResult, error) {
	var client *models.Client

	result, err := lf.withLoginTransaction(ctx, func(ctx context.Context) (*LoginResult, error) {
		var err error
		client, err = lf.clientRepo.ByEmail(ctx, request.Email)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, ErrIncorrectPassword
		}

		// Verify password before revealing account state
		if !lf.passwordSvc.Verify(client.PasswordHash, request.Password) {
			return nil, ErrIncorrectPassword
		}

		if !utils.IsTrue(client.IsActive) {
			return nil, ErrAccountDeactivated
		}

		token, expiresAt, err := lf.tokenService.Generate(client.ID, client.Role, client.Email, client.FullName())
		if err != nil {
			return nil, err
		}

		now := utils.UTCNow()
		if err := lf.clientRepo.UpdateLastLogin(ctx, client.ID, now); err != nil {
			return nil, err
		}
		client.LastLoginAt = &now

		return &LoginResult{
			Client:    ToClientInfo(*client),
			Token:     token,
			ExpiresAt: expiresAt,
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = lf.logClientAction(ctx, client, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("Client logged in successfully: %d", result.Client.ID)
	_ = lf.logClientAction(ctx, client, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return result, nil
}

// Logout records the event. Sessions are stateless tokens, so the only
// server-side effect is the audit entry; the handler clears the cookie.
func (lf *LoginFlowImpl) Logout(ctx context.Context, clientID uint, metadata *ClientMetadata) error {
	client, err := lf.clientRepo.ByID(ctx, clientID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Client logged out: %d", clientID)
	return lf.logClientAction(ctx, client, models.AuditActionLogout, msg, true, nil, metadata)
}

func (lf *LoginFlowImpl) logClientAction(ctx context.Context, client *models.Client, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return lf.auditRepo.Save(ctx, audit)
}

func (lf *LoginFlowImpl) withLoginTransaction(ctx context.Context, fn func(context.Context) (*LoginResult, error)) (*LoginResult, error) {
	var result *LoginResult
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
