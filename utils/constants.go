package utils

import (
	"time"
)

// Session and token time constants
const (
	// AdminSessionTTL is the lifetime of an admin session cookie (7 days)
	AdminSessionTTL = 7 * 24 * time.Hour

	// ClientSessionTTL is the lifetime of a client session cookie (30 days)
	ClientSessionTTL = 30 * 24 * time.Hour

	// ResetTokenTTL is the lifetime of a password reset token (1 hour)
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenBytes is the entropy of a reset token before hex encoding
	ResetTokenBytes = 48
)

// Cookie names for the two independent session kinds
const (
	AdminSessionCookie  = "manzil_admin_session"
	ClientSessionCookie = "manzil_client_session"
)

// Abuse-resistance constants
const (
	// LoginAttemptLimit is the maximum login attempts per caller per window
	LoginAttemptLimit = 5

	// ForgotPasswordLimit is the maximum forgot-password requests per caller per window
	ForgotPasswordLimit = 3

	// RateLimitWindow is the sliding window for login and reset throttling
	RateLimitWindow = 15 * time.Minute
)

// Password policy
const (
	// MinPasswordLength applies to registration, password change, and reset
	MinPasswordLength = 6
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
