package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/internal/config"
)

func newAuthTestApp(t *testing.T) *fiber.App {
	t.Helper()
	InitMiddleware(&config.Config{
		AppEnv:        "test",
		JWTSecret:     "test-secret-test-secret-test-secret",
		TokenLifetime: time.Hour,
	})

	app := fiber.New()
	app.Get("/protected", AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newAuthTestApp(t)

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken(42, "jane-doe")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := GenerateToken(42, "jane-doe")
		require.NoError(t, err)

		InitMiddleware(&config.Config{
			AppEnv:        "test",
			JWTSecret:     "a-different-secret-a-different-secret",
			TokenLifetime: time.Hour,
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthRequiredWithoutInit(t *testing.T) {
	cfg = nil
	t.Cleanup(func() {
		InitMiddleware(&config.Config{
			AppEnv:        "test",
			JWTSecret:     "test-secret-test-secret-test-secret",
			TokenLifetime: time.Hour,
		})
	})

	app := fiber.New()
	app.Get("/protected", AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGenerateTokenUniqueJTI(t *testing.T) {
	InitMiddleware(&config.Config{
		AppEnv:        "test",
		JWTSecret:     "test-secret-test-secret-test-secret",
		TokenLifetime: time.Hour,
	})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		token, err := GenerateToken(1, fmt.Sprintf("user%d", i))
		require.NoError(t, err)
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
