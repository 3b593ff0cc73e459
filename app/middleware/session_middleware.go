// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
)

// SessionMiddleware authenticates requests from session cookies.
// Every verification failure, whatever its cause, is reported as an
// absent session so callers learn nothing about why a token failed.
type SessionMiddleware struct {
	adminTokens  services.SessionTokenService
	clientTokens services.SessionTokenService
	adminRepo    repository.AdminRepository
	clientRepo   repository.ClientRepository
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(
	adminTokens services.SessionTokenService,
	clientTokens services.SessionTokenService,
	adminRepo repository.AdminRepository,
	clientRepo repository.ClientRepository,
) *SessionMiddleware {
	return &SessionMiddleware{
		adminTokens:  adminTokens,
		clientTokens: clientTokens,
		adminRepo:    adminRepo,
		clientRepo:   clientRepo,
	}
}

// ParseCookies splits a raw Cookie header into name/value pairs.
// Pairs are separated by ';' and each pair splits on the first '='
// only, so values containing '=' (like signed tokens) stay intact.
func ParseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies
}

// CookieValue extracts one cookie from the request's Cookie header
func CookieValue(c fiber.Ctx, name string) string {
	header := c.Get("Cookie")
	if header == "" {
		return ""
	}
	return ParseCookies(header)[name]
}

// RequireAdmin validates the admin session cookie and loads the admin record
func (m *SessionMiddleware) RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := CookieValue(c, m.adminTokens.CookieName())
		if token == "" {
			return unauthenticated(c)
		}

		claims, err := m.adminTokens.Validate(token)
		if err != nil {
			return unauthenticated(c)
		}

		admin, err := m.adminRepo.ByID(c.Context(), claims.PrincipalID)
		if err != nil {
			return serverError(c)
		}
		if admin == nil || !utils.IsTrue(admin.IsActive) {
			return unauthenticated(c)
		}

		// Store admin information in context for downstream handlers
		c.Locals("admin", admin)
		c.Locals("admin_id", admin.ID)
		c.Locals("session_claims", claims)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// RequireClient validates the client session cookie and loads the client record
func (m *SessionMiddleware) RequireClient() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := CookieValue(c, m.clientTokens.CookieName())
		if token == "" {
			return unauthenticated(c)
		}

		claims, err := m.clientTokens.Validate(token)
		if err != nil {
			return unauthenticated(c)
		}

		client, err := m.clientRepo.ByID(c.Context(), claims.PrincipalID)
		if err != nil {
			return serverError(c)
		}
		if client == nil || !utils.IsTrue(client.IsActive) {
			return unauthenticated(c)
		}

		// Store client information in context for downstream handlers
		c.Locals("client", client)
		c.Locals("client_id", client.ID)
		c.Locals("session_claims", claims)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// OptionalClient loads the client session if a valid cookie is present,
// but lets unauthenticated requests through
func (m *SessionMiddleware) OptionalClient() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := CookieValue(c, m.clientTokens.CookieName())
		if token == "" {
			return c.Next()
		}

		claims, err := m.clientTokens.Validate(token)
		if err != nil {
			return c.Next()
		}

		client, err := m.clientRepo.ByID(c.Context(), claims.PrincipalID)
		if err != nil || client == nil || !utils.IsTrue(client.IsActive) {
			return c.Next()
		}

		c.Locals("client", client)
		c.Locals("client_id", client.ID)
		c.Locals("session_claims", claims)

		return c.Next()
	}
}

// OptionalAdmin loads the admin session if a valid cookie is present,
// but lets unauthenticated requests through
func (m *SessionMiddleware) OptionalAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := CookieValue(c, m.adminTokens.CookieName())
		if token == "" {
			return c.Next()
		}

		claims, err := m.adminTokens.Validate(token)
		if err != nil {
			return c.Next()
		}

		admin, err := m.adminRepo.ByID(c.Context(), claims.PrincipalID)
		if err != nil || admin == nil || !utils.IsTrue(admin.IsActive) {
			return c.Next()
		}

		c.Locals("admin", admin)
		c.Locals("admin_id", admin.ID)
		c.Locals("session_claims", claims)

		return c.Next()
	}
}

func unauthenticated(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: "Authentication required",
		Error: dto.ErrorDetail{
			Code: dto.ErrorSessionRequired,
		},
	})
}

func serverError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
		Success: false,
		Message: "Internal server error",
		Error: dto.ErrorDetail{
			Code: dto.ErrorInternalServerError,
		},
	})
}

// GetAdminFromContext extracts the authenticated admin from the request context
func GetAdminFromContext(c fiber.Ctx) (*models.Admin, bool) {
	admin, ok := c.Locals("admin").(*models.Admin)
	return admin, ok
}

// GetClientFromContext extracts the authenticated client from the request context
func GetClientFromContext(c fiber.Ctx) (*models.Client, bool) {
	client, ok := c.Locals("client").(*models.Client)
	return client, ok
}

// GetSessionClaimsFromContext extracts session claims from the request context
func GetSessionClaimsFromContext(c fiber.Ctx) (*services.SessionClaims, bool) {
	claims, ok := c.Locals("session_claims").(*services.SessionClaims)
	return claims, ok
}
