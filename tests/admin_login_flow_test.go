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

func newAdminTokenService(t *testing.T) services.SessionTokenService {
	t.Helper()
	svc, err := services.NewSessionTokenService(
		services.PrincipalAdmin,
		utils.AdminSessionCookie,
		utils.AdminSessionTTL,
		testAppSecret,
		"test-issuer",
		"test-audience",
	)
	require.NoError(t, err)
	return svc
}

func TestAdminAuthFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		adminRepo := repository.NewAdminRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		adminTokens := newAdminTokenService(t)
		passwordService := newTestPasswordService(t)

		authFlow := businessflow.NewAdminAuthFlow(
			adminRepo,
			auditRepo,
			adminTokens,
			passwordService,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulLogin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			result, err := authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.TestPassword,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, admin.ID, result.Admin.ID)
			assert.Equal(t, admin.Username, result.Admin.Username)
			assert.NotEmpty(t, result.Token)
			assert.WithinDuration(t, time.Now().Add(utils.AdminSessionTTL), result.ExpiresAt, time.Minute)

			claims, err := adminTokens.Validate(result.Token)
			require.NoError(t, err)
			assert.Equal(t, admin.ID, claims.PrincipalID)
			assert.Equal(t, admin.Username, claims.Identity)

			reloaded, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.LastLoginAt)
		})

		t.Run("AdminTokenRejectedByClientKey", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			result, err := authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.TestPassword,
			}, metadata)
			require.NoError(t, err)

			clientTokens := newClientTokenService(t)
			_, err = clientTokens.Validate(result.Token)
			assert.ErrorIs(t, err, services.ErrTokenInvalid)
		})

		t.Run("UnknownUsername", func(t *testing.T) {
			result, err := authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: "no_such_admin",
				Password: testingutil.TestPassword,
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAdminNotFound(err))
		})

		t.Run("WrongPassword", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			result, err := authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: "WrongPassword123!",
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("DeactivatedAdmin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			admin.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(admin).Error)

			result, err := authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.TestPassword,
			}, metadata)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAccountDeactivated(err))
		})

		t.Run("FailedLoginIsAudited", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			_, err = authFlow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: "WrongPassword123!",
			}, metadata)
			require.Error(t, err)

			var entries []models.AuditLog
			err = testDB.DB.Where("admin_id = ? AND action = ?", admin.ID, models.AuditActionAdminLoginFailed).Find(&entries).Error
			require.NoError(t, err)
			assert.NotEmpty(t, entries)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
