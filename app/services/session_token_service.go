// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/manzil-stays/manzil-api/utils"
)

// Session token error constants
var (
	ErrTokenExpired = errors.New("session token has expired")
	ErrTokenInvalid = errors.New("invalid session token")
)

// PrincipalKind distinguishes the two session populations. Each kind signs
// with its own derived secret, so an admin token never verifies as a client
// token and vice versa.
type PrincipalKind string

const (
	PrincipalAdmin  PrincipalKind = "admin"
	PrincipalClient PrincipalKind = "client"
)

// SessionTokenService issues and verifies signed session tokens carried in cookies
type SessionTokenService interface {
	Generate(principalID uint, role, identity, displayName string) (token string, expiresAt time.Time, err error)
	Validate(token string) (*SessionClaims, error)
	Kind() PrincipalKind
	CookieName() string
	TTL() time.Duration
}

// SessionClaims represents the claims inside a session token
type SessionClaims struct {
	PrincipalID uint      `json:"principal_id"`
	Role        string    `json:"role"`
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	TokenID     string    `json:"jti"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionTokenServiceImpl implements SessionTokenService for one principal kind
type SessionTokenServiceImpl struct {
	kind       PrincipalKind
	cookieName string
	ttl        time.Duration
	secretKey  []byte
	issuer     string
	audience   string
}

// NewSessionTokenService creates a token service for the given principal kind.
// The signing secret is derived from the application secret and the kind, so
// both services can share one configured secret without sharing a key.
func NewSessionTokenService(kind PrincipalKind, cookieName string, ttl time.Duration, appSecret, issuer, audience string) (SessionTokenService, error) {
	if appSecret == "" {
		return nil, fmt.Errorf("application secret is required")
	}
	if cookieName == "" {
		return nil, fmt.Errorf("cookie name is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be positive")
	}

	return &SessionTokenServiceImpl{
		kind:       kind,
		cookieName: cookieName,
		ttl:        ttl,
		secretKey:  []byte(appSecret + "_" + string(kind)),
		issuer:     issuer,
		audience:   audience,
	}, nil
}

// Generate creates a signed session token for a principal
func (s *SessionTokenServiceImpl) Generate(principalID uint, role, identity, displayName string) (string, time.Time, error) {
	now := utils.UTCNow()
	expiresAt := now.Add(s.ttl)

	tokenID, err := generateTokenID()
	if err != nil {
		return "", time.Time{}, err
	}

	claims := jwt.MapClaims{
		"principal_id": principalID,
		"role":         role,
		"identity":     identity,
		"display_name": displayName,
		"jti":          tokenID,
		"iat":          now.Unix(),
		"exp":          expiresAt.Unix(),
		"iss":          s.issuer,
		"aud":          s.audience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate verifies the signature and claims of a session token.
// Any failure yields a sentinel error; callers must treat all of them
// as an absent session.
func (s *SessionTokenServiceImpl) Validate(token string) (*SessionClaims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secretKey, nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") || strings.Contains(err.Error(), "exp") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	// Extract claims
	principalID, ok := claims["principal_id"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	identity, ok := claims["identity"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	displayName, ok := claims["display_name"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	// Check if token has expired
	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	return &SessionClaims{
		PrincipalID: uint(principalID),
		Role:        role,
		Identity:    identity,
		DisplayName: displayName,
		TokenID:     tokenID,
		IssuedAt:    time.Unix(int64(issuedAt), 0),
		ExpiresAt:   time.Unix(int64(expiresAt), 0),
	}, nil
}

// Kind returns the principal kind this service issues tokens for
func (s *SessionTokenServiceImpl) Kind() PrincipalKind {
	return s.kind
}

// CookieName returns the cookie this kind's tokens travel in
func (s *SessionTokenServiceImpl) CookieName() string {
	return s.cookieName
}

// TTL returns the session lifetime for this kind
func (s *SessionTokenServiceImpl) TTL() time.Duration {
	return s.ttl
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
