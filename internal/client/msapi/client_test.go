package msapi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/motorsoft/msadmin-bot/internal/client/msapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTokens is an in-memory TokenSource standing in for the
// postgres-backed session store.
type memoryTokens struct {
	mu            sync.Mutex
	token         string
	invalidations int
}

func (m *memoryTokens) Token(_ context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memoryTokens) Invalidate(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.invalidations++
}

func (m *memoryTokens) set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *memoryTokens) state() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.invalidations
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("successful login returns session", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/admin/login", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","username":"boss","role":"admin"}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), nil)
		result, err := client.Login(ctx, "boss", "hunter2")

		require.NoError(t, err)
		assert.Equal(t, "tok-123", result.AccessToken)
		assert.Equal(t, "admin", result.Role)
	})

	t.Run("wrong credentials surface the detail message", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), nil)
		_, err := client.Login(ctx, "boss", "wrong")

		require.Error(t, err)
		// A failed login is a plain HTTP error, never a session invalidation.
		require.NotErrorIs(t, err, msapi.ErrUnauthorized)
		var httpErr *msapi.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
		assert.Equal(t, "Incorrect username or password", httpErr.Message)
	})
}

func TestAuthorizedRequests(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("bearer header present when a token is stored", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":1,"telegram_id":42,"username":"racer","coefficient":1.0}]`))
		}))
		defer srv.Close()

		tokens := &memoryTokens{token: "tok-123"}
		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), tokens)
		users, err := client.Users(ctx)

		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, int64(42), users[0].TelegramID)
	})

	t.Run("no bearer header without a token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{})
		_, err := client.Users(ctx)

		require.NoError(t, err)
	})

	t.Run("401 invalidates the token exactly once per call", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
		}))
		defer srv.Close()

		tokens := &memoryTokens{token: "stale"}
		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), tokens)
		_, err := client.Users(ctx)

		require.ErrorIs(t, err, msapi.ErrUnauthorized)
		token, invalidations := tokens.state()
		assert.Empty(t, token)
		assert.Equal(t, 1, invalidations)
	})

	t.Run("error detail preferred over generic message", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"User not found"}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
		err := client.DeleteUser(ctx, 999)

		var httpErr *msapi.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "User not found", httpErr.Message)
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
	})

	t.Run("unparseable error body falls back to status message", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>upstream down</html>`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
		_, err := client.DashboardStats(ctx)

		var httpErr *msapi.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "Request failed: 502", httpErr.Message)
	})

	t.Run("network failure is neither unauthorized nor http error", func(t *testing.T) {
		t.Parallel()
		client := msapi.NewClient("http://127.0.0.1:1", nil, testLogger(), &memoryTokens{token: "tok"})
		_, err := client.Users(ctx)

		require.Error(t, err)
		require.NotErrorIs(t, err, msapi.ErrUnauthorized)
		var httpErr *msapi.HTTPError
		require.False(t, errors.As(err, &httpErr))
	})
}

func TestFirmwaresPagination(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})

	_, err := client.Firmwares(ctx, 50, 0)
	require.NoError(t, err)
	_, err = client.Firmwares(ctx, 50, 50)
	require.NoError(t, err)

	// Two distinct requests whose query strings differ only in offset.
	require.Len(t, queries, 2)
	assert.Equal(t, "limit=50&offset=0", queries[0])
	assert.Equal(t, "limit=50&offset=50", queries[1])
}

func TestOrders(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/orders", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"user_id":1,"firmware_id":2,"price":150,"status":"completed","stage":"stage2"}]`))
	}))
	defer srv.Close()

	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
	orders, err := client.Orders(ctx, 100)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "stage2", orders[0].Stage)
	assert.InEpsilon(t, 150.0, orders[0].Price, 0.0001)
}

func TestToggleUserBlockIsIndependent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		assert.Equal(t, "/admin/users/5/block", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})

	// Block then immediately unblock: each call succeeds on its own, there is
	// no conflict detection between them.
	require.NoError(t, client.ToggleUserBlock(ctx, 5, true))
	require.NoError(t, client.ToggleUserBlock(ctx, 5, false))
	require.Equal(t, []string{`{"block":true}`, `{"block":false}`}, bodies)
}

func TestUpdateUserPartnerStatus(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		raw, _ := io.ReadAll(r.Body)
		// Only the provided field goes over the wire.
		assert.JSONEq(t, `{"coefficient":0.6}`, string(raw))
		_, _ = w.Write([]byte(`{"success":true,"is_partner":true,"is_slave":false,"coefficient":0.6,"discount_percent":40}`))
	}))
	defer srv.Close()

	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
	coefficient := 0.6
	status, err := client.UpdateUserPartnerStatus(ctx, 3, msapi.PartnerUpdate{Coefficient: &coefficient})

	require.NoError(t, err)
	assert.Equal(t, 40, status.DiscountPercent)
	assert.InEpsilon(t, 0.6, status.Coefficient, 0.0001)
}

func TestUploadFirmware(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/firmwares/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		// The multipart writer owns the content type, boundary included.
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data; boundary=")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "golf7_stage1.bin", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "binary-calibration-data", string(content))

		_, _ = w.Write([]byte(`{"success":true,"firmware_id":314}`))
	}))
	defer srv.Close()

	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
	id, err := client.UploadFirmware(ctx, "golf7_stage1.bin", strings.NewReader("binary-calibration-data"))

	require.NoError(t, err)
	assert.Equal(t, 314, id)
}

func TestStaff(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("create returns new id", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"username":"op1","password":"secret","role":"operator"}`, string(raw))
			_, _ = w.Write([]byte(`{"success":true,"id":12}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
		id, err := client.CreateStaff(ctx, "op1", "secret", "operator")

		require.NoError(t, err)
		assert.Equal(t, 12, id)
	})

	t.Run("delete hits the id path", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/admin/staff/12", r.URL.Path)
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), &memoryTokens{token: "tok"})
		require.NoError(t, client.DeleteStaff(ctx, 12))
	})
}

// TestSessionLifecycle walks the full path: login, authenticated call,
// manual token wipe, next call fails unauthorized.
func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/login":
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"bearer","username":"boss","role":"admin"}`))
		case "/admin/users":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tokens := &memoryTokens{}
	client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), tokens)

	result, err := client.Login(ctx, "boss", "hunter2")
	require.NoError(t, err)
	tokens.set(result.AccessToken)

	_, err = client.Users(ctx)
	require.NoError(t, err)

	tokens.set("")
	_, err = client.Users(ctx)
	require.ErrorIs(t, err, msapi.ErrUnauthorized)
}

func TestPing(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("healthy api", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), nil)
		require.NoError(t, client.Ping(ctx))
	})

	t.Run("degraded api", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := msapi.NewClient(srv.URL, srv.Client(), testLogger(), nil)
		require.Error(t, client.Ping(ctx))
	})
}
