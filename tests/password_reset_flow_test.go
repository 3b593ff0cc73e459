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

func TestPasswordResetFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		clientRepo := repository.NewClientRepository(testDB.DB)
		resetTokenRepo := repository.NewPasswordResetTokenRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		passwordService := newTestPasswordService(t)
		notificationService := services.NewNotificationService(
			services.NewMockSMSProvider(),
			services.NewMockEmailProvider(),
			"+971500000000",
			"operator@example.com",
		)

		resetFlow := businessflow.NewPasswordResetFlow(
			clientRepo,
			resetTokenRepo,
			auditRepo,
			passwordService,
			notificationService,
			testDB.DB,
		)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		tokensForClient := func(clientID uint) []models.PasswordResetToken {
			var tokens []models.PasswordResetToken
			require.NoError(t, testDB.DB.Where("client_id = ?", clientID).Order("id").Find(&tokens).Error)
			return tokens
		}

		t.Run("RequestIssuesToken", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			err = resetFlow.RequestReset(context.Background(), &dto.ForgotPasswordRequest{Email: client.Email}, metadata)
			require.NoError(t, err)

			tokens := tokensForClient(client.ID)
			require.Len(t, tokens, 1)
			assert.Len(t, tokens[0].Token, utils.ResetTokenBytes*2)
			assert.Nil(t, tokens[0].UsedAt)
			assert.WithinDuration(t, time.Now().Add(utils.ResetTokenTTL), tokens[0].ExpiresAt, time.Minute)
		})

		t.Run("RequestForUnknownEmailSucceedsSilently", func(t *testing.T) {
			err := resetFlow.RequestReset(context.Background(), &dto.ForgotPasswordRequest{Email: "nobody@example.com"}, metadata)
			require.NoError(t, err)
			assert.Zero(t, countTokensFor(t, testDB, "nobody@example.com"))
		})

		t.Run("RequestForDeactivatedAccountSucceedsSilently", func(t *testing.T) {
			client, err := fixtures.CreateDeactivatedClient()
			require.NoError(t, err)

			err = resetFlow.RequestReset(context.Background(), &dto.ForgotPasswordRequest{Email: client.Email}, metadata)
			require.NoError(t, err)
			assert.Empty(t, tokensForClient(client.ID))
		})

		t.Run("NewRequestSupersedesOldTokens", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			require.NoError(t, resetFlow.RequestReset(context.Background(), &dto.ForgotPasswordRequest{Email: client.Email}, metadata))
			require.NoError(t, resetFlow.RequestReset(context.Background(), &dto.ForgotPasswordRequest{Email: client.Email}, metadata))

			tokens := tokensForClient(client.ID)
			require.Len(t, tokens, 2)
			assert.NotNil(t, tokens[0].UsedAt)
			assert.Nil(t, tokens[1].UsedAt)
		})

		t.Run("VerifyToken", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			live, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(utils.ResetTokenTTL))
			require.NoError(t, err)
			expired, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(-time.Minute))
			require.NoError(t, err)
			used, err := fixtures.CreateUsedResetToken(client.ID)
			require.NoError(t, err)

			status, err := resetFlow.VerifyToken(context.Background(), live.Token)
			require.NoError(t, err)
			assert.True(t, status.Valid)
			assert.Equal(t, client.Email, status.Email)
			assert.WithinDuration(t, live.ExpiresAt, status.ExpiresAt, time.Second)

			_, err = resetFlow.VerifyToken(context.Background(), expired.Token)
			assert.True(t, businessflow.IsResetTokenExpired(err))

			_, err = resetFlow.VerifyToken(context.Background(), used.Token)
			assert.True(t, businessflow.IsResetTokenUsed(err))

			_, err = resetFlow.VerifyToken(context.Background(), "deadbeef")
			assert.True(t, businessflow.IsResetTokenNotFound(err))
		})

		t.Run("ResetPassword", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(utils.ResetTokenTTL))
			require.NoError(t, err)

			req := &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}

			resp, err := resetFlow.ResetPassword(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.True(t, resp.Success)
			assert.WithinDuration(t, time.Now(), resp.Data.PasswordChangedAt, time.Minute)

			// Old password no longer works, new one does
			reloaded, err := clientRepo.ByID(context.Background(), client.ID)
			require.NoError(t, err)
			assert.False(t, passwordService.Verify(reloaded.PasswordHash, testingutil.TestPassword))
			assert.True(t, passwordService.Verify(reloaded.PasswordHash, "FreshPass456!"))

			// The token is single use
			_, err = resetFlow.ResetPassword(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsResetTokenUsed(err))
		})

		t.Run("ResetPasswordExpiredToken", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(-time.Minute))
			require.NoError(t, err)

			_, err = resetFlow.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsResetTokenExpired(err))
		})

		t.Run("ResetPasswordDeactivatedAccount", func(t *testing.T) {
			client, err := fixtures.CreateDeactivatedClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(utils.ResetTokenTTL))
			require.NoError(t, err)

			_, err = resetFlow.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountDeactivated(err))
		})

		t.Run("ResetPasswordValidation", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(utils.ResetTokenTTL))
			require.NoError(t, err)

			_, err = resetFlow.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "abc",
				ConfirmPassword: "abc",
			}, metadata)
			assert.True(t, businessflow.IsPasswordTooShort(err))

			_, err = resetFlow.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "Different456!",
			}, metadata)
			assert.True(t, businessflow.IsPasswordMismatch(err))
		})

		t.Run("CompletedResetIsAudited", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(utils.ResetTokenTTL))
			require.NoError(t, err)

			_, err = resetFlow.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
				Token:           token.Token,
				NewPassword:     "FreshPass456!",
				ConfirmPassword: "FreshPass456!",
			}, metadata)
			require.NoError(t, err)

			var entries []models.AuditLog
			err = testDB.DB.Where("client_id = ? AND action = ?", client.ID, models.AuditActionPasswordResetCompleted).Find(&entries).Error
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}

func countTokensFor(t *testing.T, testDB *testingutil.TestDB, email string) int64 {
	t.Helper()
	var count int64
	err := testDB.DB.Model(&models.PasswordResetToken{}).
		Joins("JOIN clients ON clients.id = password_reset_tokens.client_id").
		Where("clients.email = ?", email).
		Count(&count).Error
	require.NoError(t, err)
	return count
}
