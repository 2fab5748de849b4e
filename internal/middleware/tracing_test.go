package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingAndContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware(), ContextMiddleware())

	var traceFromCtx string
	app.Get("/ping", func(c *fiber.Ctx) error {
		traceFromCtx, _ = c.UserContext().Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	assert.Equal(t, resp.Header.Get("X-Trace-ID"), traceFromCtx)
}
