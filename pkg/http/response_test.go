package http

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRepErrMsg(t *testing.T) {
	app := fiber.New()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return WithRepErrMsg(c, NotFound.Code, "no script", c.Path())
	})
	app.Get("/custom", func(c *fiber.Ctx) error {
		return WithRepErrMsg(c, 1001, "odd", c.Path())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var got ErrorResponse
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.Equal(t, ErrorResponse{Code: 404, ErrMsg: "no script", Path: "/missing"}, got)

	resp, err = app.Test(httptest.NewRequest("GET", "/custom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHttpSetDefaults(t *testing.T) {
	var h Http
	h.SetDefaults()
	assert.Equal(t, "127.0.0.1:8080", h.Addr())
	assert.Zero(t, h.WriteTimeout)
	assert.Positive(t, h.BodyLimit)
}
