// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/middleware"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
)

// ProfileHandlerInterface defines the contract for profile handlers
type ProfileHandlerInterface interface {
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	ChangePassword(c fiber.Ctx) error
}

// ProfileHandler handles the authenticated client's profile requests
type ProfileHandler struct {
	profileFlow businessflow.ProfileFlow
	validator   *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileFlow businessflow.ProfileFlow) *ProfileHandler {
	return &ProfileHandler{
		profileFlow: profileFlow,
		validator:   newValidator(),
	}
}

// GetProfile returns the authenticated client's record
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	client, ok := middleware.GetClientFromContext(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorSessionRequired, nil)
	}

	result, err := h.profileFlow.GetProfile(requestContext(c), client.ID)
	if err != nil {
		log.Println("Profile lookup failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", "PROFILE_LOOKUP_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Profile loaded", result)
}

// UpdateProfile applies a partial update to the client's own record
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	client, ok := middleware.GetClientFromContext(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorSessionRequired, nil)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	result, err := h.profileFlow.UpdateProfile(requestContext(c), client.ID, &req, clientMetadata(c))
	if err != nil {
		log.Println("Profile update failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Profile update failed", "PROFILE_UPDATE_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Profile updated", result)
}

// ChangePassword rotates the client's password after verifying the current one
func (h *ProfileHandler) ChangePassword(c fiber.Ctx) error {
	client, ok := middleware.GetClientFromContext(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrorSessionRequired, nil)
	}

	var req dto.ChangePasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, validationMessages(err))
	}

	result, err := h.profileFlow.ChangePassword(requestContext(c), client.ID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsIncorrectPassword(err) {
			return ErrorResponse(c, fiber.StatusUnauthorized, "Current password is incorrect", dto.ErrorInvalidCredentials, nil)
		}
		if businessflow.IsPasswordTooShort(err) || businessflow.IsPasswordMismatch(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidationFailed, nil)
		}

		log.Println("Password change failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Password change failed", "CHANGE_PASSWORD_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Password changed", result)
}
