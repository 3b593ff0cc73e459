// Package testing provides test utilities and database setup for testing the session subsystem
package testing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password used for every fixture principal
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestClient creates an active client with a hashed password
func (tf *TestFixtures) CreateTestClient() (*models.Client, error) {
	// MinCost keeps fixture creation fast; the hasher itself is covered elsewhere
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", mrand.Intn(900000000)+100000000)

	client := &models.Client{
		UUID:              uuid.New(),
		Email:             fmt.Sprintf("guest.%s@example.com", randomDigits),
		PasswordHash:      string(hashedPassword),
		FirstName:         "Layla",
		LastName:          "Haddad",
		Role:              models.ClientRoleGuest,
		PreferredLanguage: models.LanguageArabic,
		IsActive:          utils.ToPtr(true),
		IsEmailVerified:   utils.ToPtr(false),
	}

	if err := tf.DB.DB.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create test client: %w", err)
	}

	return client, nil
}

// CreateDeactivatedClient creates a client whose account has been switched off
func (tf *TestFixtures) CreateDeactivatedClient() (*models.Client, error) {
	client, err := tf.CreateTestClient()
	if err != nil {
		return nil, err
	}

	client.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(client).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test client: %w", err)
	}

	return client, nil
}

// CreateTestAdmin creates an active admin with a hashed password
func (tf *TestFixtures) CreateTestAdmin() (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", mrand.Intn(900000000)+100000000)

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("admin_%s", randomDigits),
		PasswordHash: string(hashedPassword),
		FullName:     "Site Operator",
		DisplayName:  "Operator",
		Role:         models.AdminRoleManager,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestResetToken creates a reset token for the client expiring at the given time
func (tf *TestFixtures) CreateTestResetToken(clientID uint, expiresAt time.Time) (*models.PasswordResetToken, error) {
	raw := make([]byte, utils.ResetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	token := &models.PasswordResetToken{
		ClientID:  clientID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: expiresAt,
	}

	if err := tf.DB.DB.Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to create test reset token: %w", err)
	}

	return token, nil
}

// CreateUsedResetToken creates a reset token that has already been consumed
func (tf *TestFixtures) CreateUsedResetToken(clientID uint) (*models.PasswordResetToken, error) {
	token, err := tf.CreateTestResetToken(clientID, utils.UTCNowAdd(utils.ResetTokenTTL))
	if err != nil {
		return nil, err
	}

	token.UsedAt = utils.UTCNowPtr()
	if err := tf.DB.DB.Save(token).Error; err != nil {
		return nil, fmt.Errorf("failed to mark test reset token used: %w", err)
	}

	return token, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(clientID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		ClientID:    clientID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
