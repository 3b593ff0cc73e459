// Package tests contains integration tests for the session workflows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	testingutil "github.com/manzil-stays/manzil-api/testing"
	"github.com/manzil-stays/manzil-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositories(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()

		clientRepo := repository.NewClientRepository(testDB.DB)
		adminRepo := repository.NewAdminRepository(testDB.DB)
		resetTokenRepo := repository.NewPasswordResetTokenRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		t.Run("ClientByIDMissingReturnsNil", func(t *testing.T) {
			client, err := clientRepo.ByID(ctx, 999999)
			require.NoError(t, err)
			assert.Nil(t, client)
		})

		t.Run("ClientByEmailIsCaseInsensitive", func(t *testing.T) {
			created, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			found, err := clientRepo.ByEmail(ctx, "  "+created.Email+" ")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, created.ID, found.ID)
		})

		t.Run("AdminByUsername", func(t *testing.T) {
			created, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			found, err := adminRepo.ByUsername(ctx, created.Username)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, created.ID, found.ID)

			missing, err := adminRepo.ByUsername(ctx, "no_such_admin")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("UpdatePassword", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			require.NoError(t, clientRepo.UpdatePassword(ctx, client.ID, "new-hash"))

			reloaded, err := clientRepo.ByID(ctx, client.ID)
			require.NoError(t, err)
			assert.Equal(t, "new-hash", reloaded.PasswordHash)
		})

		t.Run("MarkUsedIsGuarded", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(time.Hour))
			require.NoError(t, err)

			first := utils.UTCNow()
			require.NoError(t, resetTokenRepo.MarkUsed(ctx, token.ID, first))

			// A second consumption attempt must fail and leave the timestamp
			err = resetTokenRepo.MarkUsed(ctx, token.ID, first.Add(time.Hour))
			assert.ErrorIs(t, err, repository.ErrTokenAlreadyUsed)

			reloaded, err := resetTokenRepo.ByToken(ctx, token.Token)
			require.NoError(t, err)
			require.NotNil(t, reloaded.UsedAt)
			assert.WithinDuration(t, first, *reloaded.UsedAt, time.Second)
		})

		t.Run("SupersedeActiveSkipsUsedTokens", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			used, err := fixtures.CreateUsedResetToken(client.ID)
			require.NoError(t, err)
			live, err := fixtures.CreateTestResetToken(client.ID, utils.UTCNowAdd(time.Hour))
			require.NoError(t, err)

			usedAtBefore := *used.UsedAt

			require.NoError(t, resetTokenRepo.SupersedeActive(ctx, client.ID, utils.UTCNow()))

			remaining, err := resetTokenRepo.ByFilter(ctx, models.PasswordResetTokenFilter{
				ClientID: &client.ID,
				Unused:   utils.ToPtr(true),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, remaining)

			reloadedLive, err := resetTokenRepo.ByToken(ctx, live.Token)
			require.NoError(t, err)
			assert.NotNil(t, reloadedLive.UsedAt)

			reloadedUsed, err := resetTokenRepo.ByToken(ctx, used.Token)
			require.NoError(t, err)
			assert.WithinDuration(t, usedAtBefore, *reloadedUsed.UsedAt, time.Second)
		})

		t.Run("AuditLogFilters", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			_, err = fixtures.CreateTestAuditLog(&client.ID, models.AuditActionLoginSuccess, true)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAuditLog(&client.ID, models.AuditActionLoginFailed, false)
			require.NoError(t, err)

			entries, err := auditRepo.ListByClient(ctx, client.ID, 10)
			require.NoError(t, err)
			assert.Len(t, entries, 2)

			failed, err := auditRepo.ListFailedActions(ctx, models.AuditActionLoginFailed, 10)
			require.NoError(t, err)
			require.NotEmpty(t, failed)
			for _, entry := range failed {
				assert.False(t, utils.IsTrue(entry.Success))
			}
		})

		t.Run("TransactionRollsBackOnError", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)

			sentinel := assert.AnError
			err = repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				if err := clientRepo.UpdatePassword(txCtx, client.ID, "rolled-back-hash"); err != nil {
					return err
				}
				return sentinel
			})
			require.ErrorIs(t, err, sentinel)

			reloaded, err := clientRepo.ByID(ctx, client.ID)
			require.NoError(t, err)
			assert.NotEqual(t, "rolled-back-hash", reloaded.PasswordHash)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
