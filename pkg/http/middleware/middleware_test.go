package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arcentrix/runstream/pkg/http"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authApp(auth http.Auth) *fiber.App {
	app := fiber.New()
	app.Get("/p", AuthMiddleware(auth), func(c *fiber.Ctx) error {
		sub, _ := c.Locals(SUBJECT).(string)
		return c.SendString(sub)
	})
	return app
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	resp, err := authApp(http.Auth{}).Test(httptest.NewRequest("GET", "/p", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	auth := http.Auth{Enabled: true, SecretKey: "s3cret"}
	app := authApp(auth)
	valid := signed(t, "s3cret", jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/p?token="+valid, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/p", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	wrongKey := signed(t, "other", jwt.RegisteredClaims{Subject: "mallory"})
	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+wrongKey)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	expired := signed(t, "s3cret", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUnifiedResponseMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(UnifiedResponseMiddleware())
	app.Get("/detail", func(c *fiber.Ctx) error {
		c.Status(fiber.StatusAccepted)
		c.Locals(DETAIL, map[string]string{"status": "accepted"})
		return nil
	})
	app.Get("/own", func(c *fiber.Ctx) error {
		c.Locals(DETAIL, "ignored")
		return c.SendString("written")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/detail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"accepted"}`, string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/own", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "written", string(body))
}

func TestRegisterHttpMetricsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterHttpMetrics(reg))
	require.NoError(t, RegisterHttpMetrics(reg))
}
