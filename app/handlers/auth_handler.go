// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/middleware"
	"github.com/manzil-stays/manzil-api/app/services"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
	"github.com/manzil-stays/manzil-api/utils"
)

// AuthHandlerInterface defines the contract for client authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
	ForgotPassword(c fiber.Ctx) error
	VerifyResetToken(c fiber.Ctx) error
	ResetPassword(c fiber.Ctx) error
}

// AuthHandler handles client authentication HTTP requests
type AuthHandler struct {
	signupFlow    businessflow.SignupFlow
	loginFlow     businessflow.LoginFlow
	resetFlow     businessflow.PasswordResetFlow
	tokenService  services.SessionTokenService
	rateLimits    services.RateLimitStore
	secureCookies bool
	validator     *validator.Validate
}

// NewAuthHandler creates a new client authentication handler
func NewAuthHandler(
	signupFlow businessflow.SignupFlow,
	loginFlow businessflow.LoginFlow,
	resetFlow businessflow.PasswordResetFlow,
	tokenService services.SessionTokenService,
	rateLimits services.RateLimitStore,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		signupFlow:    signupFlow,
		loginFlow:     loginFlow,
		resetFlow:     resetFlow,
		tokenService:  tokenService,
		rateLimits:    rateLimits,
		secureCookies: secureCookies,
		validator:     newValidator(),
	}
}

// Register handles client registration and signs the new account in
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	result, err := h.signupFlow.Register(requestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsEmailAlreadyExists(err) {
			return ErrorResponse(c, fiber.StatusConflict, "Email already exists", dto.ErrorEmailAlreadyExists, nil)
		}
		if businessflow.IsPasswordTooShort(err) || businessflow.IsPasswordMismatch(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, nil)
		}

		log.Println("Registration failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTER_FAILED", nil)
	}

	setSessionCookie(c, h.tokenService.CookieName(), result.Token, result.ExpiresAt, h.secureCookies)

	return SuccessResponse(c, fiber.StatusCreated, "Registration successful", fiber.Map{
		"client":     result.Client,
		"expires_at": result.ExpiresAt,
	})
}

// Login authenticates a client and sets the session cookie
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	if !h.allow(c, "login:"+c.IP(), utils.LoginAttemptLimit) {
		middleware.RecordRateLimited("client_login")
		return ErrorResponse(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later", dto.ErrorTooManyAttempts, nil)
	}

	result, err := h.loginFlow.Login(requestContext(c), &req, clientMetadata(c))
	if err != nil {
		// Deactivated accounts are reported distinctly; everything else
		// collapses into one generic credential failure
		if businessflow.IsAccountDeactivated(err) {
			middleware.RecordLoginAttempt("client", "deactivated")
			return ErrorResponse(c, fiber.StatusForbidden, "Account is deactivated", dto.ErrorAccountDeactivated, nil)
		}
		if businessflow.IsIncorrectPassword(err) || businessflow.IsClientNotFound(err) {
			middleware.RecordLoginAttempt("client", "failure")
			return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", dto.ErrorInvalidCredentials, nil)
		}

		log.Println("Login failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	middleware.RecordLoginAttempt("client", "success")
	setSessionCookie(c, h.tokenService.CookieName(), result.Token, result.ExpiresAt, h.secureCookies)

	return SuccessResponse(c, fiber.StatusOK, "Login successful", fiber.Map{
		"client":     result.Client,
		"expires_at": result.ExpiresAt,
	})
}

// Logout clears the session cookie; the token is not revoked server-side
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if client, ok := middleware.GetClientFromContext(c); ok {
		_ = h.loginFlow.Logout(requestContext(c), client.ID, clientMetadata(c))
	}

	clearSessionCookie(c, h.tokenService.CookieName(), h.secureCookies)

	return SuccessResponse(c, fiber.StatusOK, "Logout successful", nil)
}

// Me resolves the session cookie to the current client. An absent or
// invalid session is a normal answer here, not an error status.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	client, ok := middleware.GetClientFromContext(c)
	if !ok {
		return SuccessResponse(c, fiber.StatusOK, "No active session", fiber.Map{
			"client": nil,
		})
	}

	return SuccessResponse(c, fiber.StatusOK, "Session is active", fiber.Map{
		"client": businessflow.ToClientInfo(*client),
	})
}

// ForgotPassword issues a reset token. The response is identical whether
// or not the email has an account.
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	if !h.allow(c, "forgot:"+c.IP(), utils.ForgotPasswordLimit) {
		middleware.RecordRateLimited("forgot_password")
		return ErrorResponse(c, fiber.StatusTooManyRequests, "Too many reset requests, try again later", dto.ErrorTooManyAttempts, nil)
	}

	if err := h.resetFlow.RequestReset(requestContext(c), &req, clientMetadata(c)); err != nil {
		middleware.RecordPasswordReset("request", "failure")
		log.Println("Password reset request failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Password reset request failed", "RESET_REQUEST_FAILED", nil)
	}

	middleware.RecordPasswordReset("request", "success")
	return SuccessResponse(c, fiber.StatusOK, "If the email has an account, the site operator will send a reset link", nil)
}

// VerifyResetToken reports whether a reset token can still be exchanged
func (h *AuthHandler) VerifyResetToken(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "Reset token is required", dto.ErrorInvalidResetToken, nil)
	}

	status, err := h.resetFlow.VerifyToken(requestContext(c), token)
	if err != nil {
		if businessflow.IsResetTokenUsed(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token has already been used", dto.ErrorResetTokenUsed, nil)
		}
		if businessflow.IsResetTokenExpired(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token has expired", dto.ErrorResetTokenExpired, nil)
		}
		if businessflow.IsResetTokenNotFound(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token is invalid", dto.ErrorInvalidResetToken, nil)
		}

		log.Println("Reset token verification failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Reset token verification failed", "RESET_TOKEN_VERIFY_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Reset token is valid", fiber.Map{
		"valid":      status.Valid,
		"email":      status.Email,
		"expires_at": status.ExpiresAt,
	})
}

// ResetPassword consumes a reset token and stores the new password
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	result, err := h.resetFlow.ResetPassword(requestContext(c), &req, clientMetadata(c))
	if err != nil {
		middleware.RecordPasswordReset("complete", "failure")

		if businessflow.IsResetTokenUsed(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token has already been used", dto.ErrorResetTokenUsed, nil)
		}
		if businessflow.IsResetTokenExpired(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token has expired", dto.ErrorResetTokenExpired, nil)
		}
		if businessflow.IsResetTokenNotFound(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Reset token is invalid", dto.ErrorInvalidResetToken, nil)
		}
		if businessflow.IsAccountDeactivated(err) {
			return ErrorResponse(c, fiber.StatusForbidden, "Account is deactivated", dto.ErrorAccountDeactivated, nil)
		}
		if businessflow.IsPasswordTooShort(err) || businessflow.IsPasswordMismatch(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, nil)
		}

		log.Println("Password reset failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Password reset failed", "RESET_PASSWORD_FAILED", nil)
	}

	middleware.RecordPasswordReset("complete", "success")
	return SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"password_changed_at": result.Data.PasswordChangedAt,
	})
}

// allow checks the sliding-window limit for a key. A store failure lets the
// request through; availability of login beats strict limiting here.
func (h *AuthHandler) allow(c fiber.Ctx, key string, limit int) bool {
	allowed, err := h.rateLimits.Allow(requestContext(c), key, limit, utils.RateLimitWindow)
	if err != nil {
		log.Println("Rate limit store unavailable", err)
		return true
	}
	return allowed
}
