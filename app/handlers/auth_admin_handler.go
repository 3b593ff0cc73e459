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

// AdminAuthHandlerInterface defines the contract for admin authentication handlers
type AdminAuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Me(c fiber.Ctx) error
}

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	authFlow      businessflow.AdminAuthFlow
	tokenService  services.SessionTokenService
	rateLimits    services.RateLimitStore
	secureCookies bool
	validator     *validator.Validate
}

// NewAdminAuthHandler creates a new admin authentication handler
func NewAdminAuthHandler(
	authFlow businessflow.AdminAuthFlow,
	tokenService services.SessionTokenService,
	rateLimits services.RateLimitStore,
	secureCookies bool,
) *AdminAuthHandler {
	return &AdminAuthHandler{
		authFlow:      authFlow,
		tokenService:  tokenService,
		rateLimits:    rateLimits,
		secureCookies: secureCookies,
		validator:     newValidator(),
	}
}

// Login authenticates an admin and sets the admin session cookie.
// Every credential failure gets the same 401, so the endpoint never
// confirms which usernames exist or which accounts are active.
func (h *AdminAuthHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	if !h.allow(c, "admin_login:"+c.IP(), utils.LoginAttemptLimit) {
		middleware.RecordRateLimited("admin_login")
		return ErrorResponse(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later", dto.ErrorTooManyAttempts, nil)
	}

	result, err := h.authFlow.Login(requestContext(c), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsAdminNotFound(err) || businessflow.IsIncorrectPassword(err) || businessflow.IsAccountDeactivated(err) {
			middleware.RecordLoginAttempt("admin", "failure")
			return ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", dto.ErrorInvalidCredentials, nil)
		}

		log.Println("Admin login failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "ADMIN_LOGIN_FAILED", nil)
	}

	middleware.RecordLoginAttempt("admin", "success")
	setSessionCookie(c, h.tokenService.CookieName(), result.Token, result.ExpiresAt, h.secureCookies)

	return SuccessResponse(c, fiber.StatusOK, "Login successful", fiber.Map{
		"admin":      result.Admin,
		"expires_at": result.ExpiresAt,
	})
}

// Logout clears the admin session cookie
func (h *AdminAuthHandler) Logout(c fiber.Ctx) error {
	if admin, ok := middleware.GetAdminFromContext(c); ok {
		_ = h.authFlow.Logout(requestContext(c), admin.ID, clientMetadata(c))
	}

	clearSessionCookie(c, h.tokenService.CookieName(), h.secureCookies)

	return SuccessResponse(c, fiber.StatusOK, "Logout successful", nil)
}

// Me resolves the session cookie to the current admin. An absent or
// invalid session is a normal answer here, not an error status.
func (h *AdminAuthHandler) Me(c fiber.Ctx) error {
	admin, ok := middleware.GetAdminFromContext(c)
	if !ok {
		return SuccessResponse(c, fiber.StatusOK, "No active session", fiber.Map{
			"admin": nil,
		})
	}

	return SuccessResponse(c, fiber.StatusOK, "Session is active", fiber.Map{
		"admin": businessflow.ToAdminDTO(*admin),
	})
}

func (h *AdminAuthHandler) allow(c fiber.Ctx, key string, limit int) bool {
	allowed, err := h.rateLimits.Allow(requestContext(c), key, limit, utils.RateLimitWindow)
	if err != nil {
		log.Println("Rate limit store unavailable", err)
		return true
	}
	return allowed
}
