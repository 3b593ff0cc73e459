// Package tests contains integration tests for the session workflows
package tests

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/manzil-stays/manzil-api/app/handlers"
	"github.com/manzil-stays/manzil-api/app/middleware"
	"github.com/manzil-stays/manzil-api/app/services"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	testingutil "github.com/manzil-stays/manzil-api/testing"
	"github.com/manzil-stays/manzil-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionResolution(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		adminRepo := repository.NewAdminRepository(testDB.DB)
		clientRepo := repository.NewClientRepository(testDB.DB)
		adminTokens := newAdminTokenService(t)
		clientTokens := newClientTokenService(t)

		sessions := middleware.NewSessionMiddleware(adminTokens, clientTokens, adminRepo, clientRepo)

		app := fiber.New()
		app.Get("/client-area", func(c fiber.Ctx) error {
			client, ok := middleware.GetClientFromContext(c)
			require.True(t, ok)
			return c.JSON(fiber.Map{"id": client.ID})
		}, sessions.RequireClient())
		app.Get("/whoami", func(c fiber.Ctx) error {
			if client, ok := middleware.GetClientFromContext(c); ok {
				return c.JSON(fiber.Map{"id": client.ID})
			}
			return c.JSON(fiber.Map{"id": nil})
		}, sessions.OptionalClient())

		clientCookie := func(token string) string {
			return utils.ClientSessionCookie + "=" + token
		}

		t.Run("ActiveClientResolves", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, _, err := clientTokens.Generate(client.ID, client.Role, client.Email, client.FullName())
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/client-area", nil)
			req.Header.Set("Cookie", clientCookie(token))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		})

		t.Run("DeactivatedAfterIssueDoesNotResolve", func(t *testing.T) {
			client, err := fixtures.CreateTestClient()
			require.NoError(t, err)
			token, _, err := clientTokens.Generate(client.ID, client.Role, client.Email, client.FullName())
			require.NoError(t, err)

			// The token stays cryptographically valid; only the account changed
			err = testDB.DB.Model(&models.Client{}).
				Where("id = ?", client.ID).
				Update("is_active", false).Error
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/client-area", nil)
			req.Header.Set("Cookie", clientCookie(token))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

			req = httptest.NewRequest("GET", "/whoami", nil)
			req.Header.Set("Cookie", clientCookie(token))
			resp, err = app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		})

		t.Run("MissingCookieIsRejected", func(t *testing.T) {
			req := httptest.NewRequest("GET", "/client-area", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("MeWithoutSessionIsNotAnError", func(t *testing.T) {
			authHandler := handlers.NewAuthHandler(nil, nil, nil, clientTokens, services.NewMemoryRateLimitStore(), false)
			adminAuthHandler := handlers.NewAdminAuthHandler(nil, adminTokens, services.NewMemoryRateLimitStore(), false)

			meApp := fiber.New()
			meApp.Get("/me", authHandler.Me, sessions.OptionalClient())
			meApp.Get("/admin/me", adminAuthHandler.Me, sessions.OptionalAdmin())

			resp, err := meApp.Test(httptest.NewRequest("GET", "/me", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			resp, err = meApp.Test(httptest.NewRequest("GET", "/admin/me", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		})

		t.Run("AdminTokenDoesNotOpenClientRoute", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			token, _, err := adminTokens.Generate(admin.ID, admin.Role, admin.Username, admin.DisplayName)
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/client-area", nil)
			req.Header.Set("Cookie", clientCookie(token))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})

		return nil
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
}
