package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/motorsoft/msadmin-bot/internal/server"
	"github.com/stretchr/testify/require"
)

type MockPinger struct {
	ShouldFail bool
}

func (m *MockPinger) Ping(_ context.Context) error {
	if m.ShouldFail {
		return errors.New("mock ping error")
	}
	return nil
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("all systems ok", func(t *testing.T) {
		t.Parallel()

		healthChecker := server.NewHealthChecker(logger, &MockPinger{}, &MockPinger{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		expectedBody := `{"database":"ok", "admin_api":"ok"}`
		require.JSONEq(t, expectedBody, rr.Body.String())
	})

	t.Run("database unavailable", func(t *testing.T) {
		t.Parallel()

		healthChecker := server.NewHealthChecker(logger, &MockPinger{ShouldFail: true}, &MockPinger{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		expectedBody := `{"database":"unavailable", "admin_api":"ok"}`
		require.JSONEq(t, expectedBody, rr.Body.String())
	})

	t.Run("admin api unreachable", func(t *testing.T) {
		t.Parallel()

		healthChecker := server.NewHealthChecker(logger, &MockPinger{}, &MockPinger{ShouldFail: true})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		expectedBody := `{"database":"ok", "admin_api":"unreachable"}`
		require.JSONEq(t, expectedBody, rr.Body.String())
	})
}
