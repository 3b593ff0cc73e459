// Package businessflow contains the core business logic and use cases for session workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Credential errors
	ErrClientNotFound     = errors.New("client not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")

	// Reset token errors
	ErrResetTokenNotFound = errors.New("reset token not found")
	ErrResetTokenExpired  = errors.New("reset token has expired")
	ErrResetTokenUsed     = errors.New("reset token has already been used")

	// Rate limiting
	ErrTooManyAttempts = errors.New("too many attempts, try again later")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAccountDeactivated(err error) bool {
	return errors.Is(err, ErrAccountDeactivated)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsPasswordTooShort(err error) bool {
	return errors.Is(err, ErrPasswordTooShort)
}

func IsPasswordMismatch(err error) bool {
	return errors.Is(err, ErrPasswordMismatch)
}

func IsResetTokenNotFound(err error) bool {
	return errors.Is(err, ErrResetTokenNotFound)
}

func IsResetTokenExpired(err error) bool {
	return errors.Is(err, ErrResetTokenExpired)
}

func IsResetTokenUsed(err error) bool {
	return errors.Is(err, ErrResetTokenUsed)
}

func IsTooManyAttempts(err error) bool {
	return errors.Is(err, ErrTooManyAttempts)
}
