// Package tests contains integration tests for the session workflows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/app/services"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	testingutil "github.com/manzil-stays/manzil-api/testing"
	"github.com/manzil-stays/manzil-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAppSecret = "integration-test-secret-0123456789abcdef"

func newClientTokenService(t *testing.T) services.SessionTokenService {
	t.Helper()
	svc, err := services.NewSessionTokenService(
		services.PrincipalClient,
		utils.ClientSessionCookie,
		utils.ClientSessionTTL,
		testAppSecret,
		"test-issuer",
		"test-audience",
	)
	require.NoError(t, err)
	return svc
}

func newTestPasswordService(t *testing.T) services.PasswordService {
	t.Helper()
	svc, err := services.NewPasswordService(4)
	require.NoError(t, err)
	return svc
}

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		clientRepo := repository.NewClientRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenService := newClientTokenService(t)
		passwordService := newTestPasswordService(t)

		loginFlow := businessflow.NewLoginFlow(
			clientRepo,
			auditRepo,
			tokenService,
			passwordService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulLogin", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    client.Email,
				Password: testingutil.TestPassword,
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, client.ID, result.Client.ID)
			assert.Equal(t, client.Email, result.Client.Email)
			assert.NotEmpty(t, result.Token)
			assert.WithinDuration(t, time.Now().Add(utils.ClientSessionTTL), result.ExpiresAt, time.Minute)

			// The issued token must validate against the client key
			claims, err := tokenService.Validate(result.Token)
			require.NoError(t, err)
			assert.Equal(t, client.ID, claims.PrincipalID)
			assert.Equal(t, client.Email, claims.Identity)

			// Last login is recorded
			reloaded, err := clientRepo.ByID(context.Background(), client.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded)
			require.NotNil(t, reloaded.LastLoginAt)
			assert.WithinDuration(t, time.Now(), *reloaded.LastLoginAt, time.Minute)
		})

		t.Run("LoginNormalizesEmail", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    "  " + client.Email + "  ",
				Password: testingutil.TestPassword,
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.NoError(t, err)
			assert.Equal(t, client.ID, result.Client.ID)
		})

		t.Run("UnknownEmail", func(t *testing.T) {
			loginReq := &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: testingutil.TestPassword,
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("WrongPassword", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    client.Email,
				Password: "WrongPassword123!",
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("DeactivatedAccountWithCorrectPassword", func(t *testing.T) {
			client, err := fixtures.CreateDeactivatedClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    client.Email,
				Password: testingutil.TestPassword,
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAccountDeactivated(err))
		})

		t.Run("DeactivatedAccountWithWrongPassword", func(t *testing.T) {
			// A wrong password must not reveal that the account is deactivated
			client, err := fixtures.CreateDeactivatedClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    client.Email,
				Password: "WrongPassword123!",
			}

			result, err := loginFlow.Login(context.Background(), loginReq, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsIncorrectPassword(err))
			assert.False(t, businessflow.IsAccountDeactivated(err))
		})

		t.Run("FailedLoginIsAudited", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			loginReq := &dto.LoginRequest{
				Email:    client.Email,
				Password: "WrongPassword123!",
			}

			_, err = loginFlow.Login(context.Background(), loginReq, metadata)
			require.Error(t, err)

			var entries []models.AuditLog
			err = testDB.DB.Where("client_id = ? AND action = ?", client.ID, models.AuditActionLoginFailed).Find(&entries).Error
			require.NoError(t, err)
			assert.NotEmpty(t, entries)
		})

		t.Run("LogoutIsAudited", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			err = loginFlow.Logout(context.Background(), client.ID, metadata)
			require.NoError(t, err)

			var entries []models.AuditLog
			err = testDB.DB.Where("client_id = ? AND action = ?", client.ID, models.AuditActionLogout).Find(&entries).Error
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
