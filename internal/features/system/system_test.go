package system

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"crm-imobiliario/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func newApp(pinger Pinger) *fiber.App {
	app := fiber.New()
	NewSystemApi(NewSystemController(pinger, zap.NewNop()), &config.Config{SkipAuth: true}).Setup(app)
	return app
}

func TestHealth(t *testing.T) {
	resp, err := newApp(stubPinger{}).Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestReady(t *testing.T) {
	resp, err := newApp(stubPinger{}).Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = newApp(stubPinger{err: errors.New("no reachable servers")}).Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestDebugMeWithDevClaims(t *testing.T) {
	resp, err := newApp(stubPinger{}).Test(httptest.NewRequest("GET", "/api/debug/me", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"role":"admin"`)
	assert.Contains(t, string(body), `"user_id":"dev-admin-id"`)
}
