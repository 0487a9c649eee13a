package log

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestFiberLogger(t *testing.T) {
	f := fiber.New(fiber.Config{DisableStartupMessage: true})
	f.Use(NewFiberLogger(&LoggerConfig{Name: "test", DoMetrics: true}))

	f.Get("/item/:id", func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})

	resp, err := f.Test(httptest.NewRequest("GET", "/item/10", nil), 3000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = f.Test(httptest.NewRequest("GET", "/none", nil), 3000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFiberLoggerSkip(t *testing.T) {
	called := 0

	f := fiber.New(fiber.Config{DisableStartupMessage: true})
	f.Use(NewFiberLogger(&LoggerConfig{Name: "test", Skip: func(c *fiber.Ctx) bool {
		called++
		return c.Path() == "/metrics"
	}}))

	f.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := f.Test(httptest.NewRequest("GET", "/metrics", nil), 3000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, 1, called)
}
