// Package tests contains integration tests for the session workflows
package tests

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/manzil-stays/manzil-api/app/dto"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	testingutil "github.com/manzil-stays/manzil-api/testing"
	"github.com/manzil-stays/manzil-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisterRequest() *dto.RegisterRequest {
	email := fmt.Sprintf("new.guest.%09d@example.com", rand.Intn(1000000000))
	return &dto.RegisterRequest{
		Email:           email,
		Password:        testingutil.TestPassword,
		ConfirmPassword: testingutil.TestPassword,
		FirstName:       "Omar",
		LastName:        "Khalil",
	}
}

func TestSignupFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		clientRepo := repository.NewClientRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newClientTokenService(t)
		passwordService := newTestPasswordService(t)

		signupFlow := businessflow.NewSignupFlow(
			clientRepo,
			auditRepo,
			tokenService,
			passwordService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulRegistration", func(t *testing.T) {
			req := newRegisterRequest()

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, req.Email, result.Client.Email)
			assert.Equal(t, models.ClientRoleGuest, result.Client.Role)
			assert.Equal(t, models.LanguageArabic, result.Client.PreferredLanguage)
			assert.NotEmpty(t, result.Token)

			// The new account is signed in immediately
			claims, err := tokenService.Validate(result.Token)
			require.NoError(t, err)
			assert.Equal(t, result.Client.ID, claims.PrincipalID)

			// Password is stored hashed
			saved, err := clientRepo.ByEmail(context.Background(), req.Email)
			require.NoError(t, err)
			require.NotNil(t, saved)
			assert.NotEqual(t, req.Password, saved.PasswordHash)
			assert.True(t, passwordService.Verify(saved.PasswordHash, req.Password))
		})

		t.Run("EmailIsNormalized", func(t *testing.T) {
			req := newRegisterRequest()
			lower := req.Email
			req.Email = "  " + strings.ToUpper(lower) + "  "

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, lower, result.Client.Email)
		})

		t.Run("OwnerRoleAndEnglishLanguage", func(t *testing.T) {
			req := newRegisterRequest()
			req.Role = utils.ToPtr(models.ClientRoleOwner)
			req.PreferredLanguage = utils.ToPtr(models.LanguageEnglish)

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.ClientRoleOwner, result.Client.Role)
			assert.Equal(t, models.LanguageEnglish, result.Client.PreferredLanguage)
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			existing, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			req := newRegisterRequest()
			req.Email = existing.Email

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("DuplicateEmailDifferentCase", func(t *testing.T) {
			existing, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			req := newRegisterRequest()
			req.Email = strings.ToUpper(existing.Email)

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("ShortPassword", func(t *testing.T) {
			req := newRegisterRequest()
			req.Password = "abc"
			req.ConfirmPassword = "abc"

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsPasswordTooShort(err))
		})

		t.Run("PasswordMismatch", func(t *testing.T) {
			req := newRegisterRequest()
			req.ConfirmPassword = "SomethingElse123!"

			result, err := signupFlow.Register(context.Background(), req, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsPasswordMismatch(err))
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
