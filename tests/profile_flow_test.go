// Package tests contains integration tests for the session workflows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/manzil-stays/manzil-api/app/dto"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	testingutil "github.com/manzil-stays/manzil-api/testing"
	"github.com/manzil-stays/manzil-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		clientRepo := repository.NewClientRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		passwordService := newTestPasswordService(t)

		profileFlow := businessflow.NewProfileFlow(
			clientRepo,
			auditRepo,
			passwordService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("GetProfile", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			resp, err := profileFlow.GetProfile(context.Background(), client.ID)
			require.NoError(t, err)
			assert.Equal(t, client.ID, resp.Client.ID)
			assert.Equal(t, client.Email, resp.Client.Email)
		})

		t.Run("GetProfileUnknownClient", func(t *testing.T) {
			_, err := profileFlow.GetProfile(context.Background(), 999999)
			require.Error(t, err)
			assert.True(t, businessflow.IsClientNotFound(err))
		})

		t.Run("PartialUpdateLeavesOtherFieldsAlone", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			resp, err := profileFlow.UpdateProfile(context.Background(), client.ID, &dto.UpdateProfileRequest{
				FirstName: utils.ToPtr("Nadia"),
				Bio:       utils.ToPtr("Hosting since 2020"),
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "Nadia", resp.Client.FirstName)
			assert.Equal(t, client.LastName, resp.Client.LastName)
			require.NotNil(t, resp.Client.Bio)
			assert.Equal(t, "Hosting since 2020", *resp.Client.Bio)
		})

		t.Run("UpdatePreferredLanguage", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			resp, err := profileFlow.UpdateProfile(context.Background(), client.ID, &dto.UpdateProfileRequest{
				PreferredLanguage: utils.ToPtr(models.LanguageEnglish),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.LanguageEnglish, resp.Client.PreferredLanguage)
		})

		t.Run("ChangePassword", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			resp, err := profileFlow.ChangePassword(context.Background(), client.ID, &dto.ChangePasswordRequest{
				CurrentPassword: testingutil.TestPassword,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), resp.PasswordChangedAt, time.Minute)

			reloaded, err := clientRepo.ByID(context.Background(), client.ID)
			require.NoError(t, err)
			assert.True(t, passwordService.Verify(reloaded.PasswordHash, "FreshPass456!"))
			assert.False(t, passwordService.Verify(reloaded.PasswordHash, testingutil.TestPassword))
		})

		t.Run("ChangePasswordWrongCurrent", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			_, err = profileFlow.ChangePassword(context.Background(), client.ID, &dto.ChangePasswordRequest{
				CurrentPassword: "WrongPassword123!",
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("PasswordChangeIsAudited", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			_, err = profileFlow.ChangePassword(context.Background(), client.ID, &dto.ChangePasswordRequest{
				CurrentPassword: testingutil.TestPassword,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.NoError(t, err)

			var entries []models.AuditLog
			err = testDB.DB.Where("client_id = ? AND action = ?", client.ID, models.AuditActionPasswordChanged).Find(&entries).Error
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
