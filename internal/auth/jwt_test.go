package auth_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/vantro-khata/internal/auth"
)

var secret = []byte("test-secret")

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/dev/token", auth.DevTokenHandler(secret))
	app.Get("/me", auth.Middleware(secret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func status(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestMiddleware(t *testing.T) {
	app := newApp()
	good, err := auth.IssueToken(secret, "owner-1", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := auth.IssueToken(secret, "owner-1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	foreign, err := auth.IssueToken([]byte("other"), "owner-1", time.Hour, time.Now())
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString(secret)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, status(t, app, "Bearer "+good))
	assert.Equal(t, fiber.StatusOK, status(t, app, "bearer "+good))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, good))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "Bearer "+expired))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "Bearer "+foreign))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "Bearer "+noUser))
}

func TestDevTokenRoundTrip(t *testing.T) {
	app := newApp()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/dev/token?user_id=shop-42", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "shop-42", out.UserID)

	uid, err := auth.ParseToken(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "shop-42", uid)
}
