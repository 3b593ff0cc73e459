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
)

// AdminLoginResult carries the response body plus the session token
type AdminLoginResult struct {
	Admin     dto.AdminDTO
	Token     string
	ExpiresAt time.Time
}

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*AdminLoginResult, error)
	Logout(ctx context.Context, adminID uint, metadata *ClientMetadata) error
}

// AdminAuthFlowImpl provides admin credential verification
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.SessionTokenService
	passwordSvc  services.PasswordService
}

func NewAdminAuthFlow(
	adminRepo repository.AdminRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.SessionTokenService,
	passwordSvc services.PasswordService,
) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		passwordSvc:  passwordSvc,
	}
}

// Login verifies admin credentials. Unknown username, wrong password, and
// a deactivated account all fail the same way so the response never hints
// which admin accounts exist.
func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*AdminLoginResult, error) {
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", ErrIncorrectPassword)
	}

	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}

	fail := func(cause error) (*AdminLoginResult, error) {
		errMsg := fmt.Sprintf("Admin login failed: %s", cause.Error())
		_ = af.logAdminAction(ctx, admin, models.AuditActionAdminLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", cause)
	}

	if admin == nil {
		return fail(ErrAdminNotFound)
	}

	if !af.passwordSvc.Verify(admin.PasswordHash, req.Password) {
		return fail(ErrIncorrectPassword)
	}

	if !utils.IsTrue(admin.IsActive) {
		return fail(ErrAccountDeactivated)
	}

	token, expiresAt, err := af.tokenService.Generate(admin.ID, admin.Role, admin.Username, admin.DisplayName)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate session token", err)
	}

	now := utils.UTCNow()
	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}
	admin.LastLoginAt = &now

	msg := fmt.Sprintf("Admin logged in successfully: %d", admin.ID)
	_ = af.logAdminAction(ctx, admin, models.AuditActionAdminLoginSuccess, msg, true, nil, metadata)

	return &AdminLoginResult{
		Admin:     ToAdminDTO(*admin),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout records the event; the handler clears the cookie
func (af *AdminAuthFlowImpl) Logout(ctx context.Context, adminID uint, metadata *ClientMetadata) error {
	admin, err := af.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Admin logged out: %d", adminID)
	return af.logAdminAction(ctx, admin, models.AuditActionAdminLogout, msg, true, nil, metadata)
}

func (af *AdminAuthFlowImpl) logAdminAction(ctx context.Context, admin *models.Admin, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var adminID *uint
	if admin != nil {
		adminID = &admin.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AdminID:      adminID,
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

	return af.auditRepo.Save(ctx, audit)
}
