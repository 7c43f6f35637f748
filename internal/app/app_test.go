package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/identity"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadConfig(t *testing.T, envs map[string]string) *config.Config {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func get(t *testing.T, a *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rec
}

func TestNewApp_MemoryBackend(t *testing.T) {
	a, err := NewApp(loadConfig(t, nil), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.pool)
	assert.Nil(t, a.rdb)
	assert.Nil(t, a.producer)
	assert.Equal(t, ":8080", a.httpServer.Addr)

	rec := get(t, a, "/api/v1/products")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 6, body.Data.Count)

	assert.Equal(t, http.StatusOK, get(t, a, "/health/ready").Code)
}

func TestNewApp_UnseededMemoryBackend(t *testing.T) {
	a, err := NewApp(loadConfig(t, map[string]string{"SEED_MEMORY_BACKEND": "false"}), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	rec := get(t, a, "/api/v1/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestNewApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := NewApp(loadConfig(t, map[string]string{"REDIS_ADDR": mr.Addr()}), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	require.NotNil(t, a.rdb)
	assert.Equal(t, http.StatusOK, get(t, a, "/health/ready").Code)

	mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, a, "/health/ready").Code)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewApp(loadConfig(t, map[string]string{"REDIS_ADDR": addr}), newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestNewApp_RESTBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	a, err := NewApp(loadConfig(t, map[string]string{
		"DATA_BACKEND":         config.BackendREST,
		"DATA_SERVICE_URL":     server.URL,
		"DATA_SERVICE_API_KEY": "anon-key",
	}), newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Equal(t, http.StatusOK, get(t, a, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(t, a, "/api/v1/products?category=anything").Code)
}

func TestOpenSessions_DefaultsToMemory(t *testing.T) {
	a := &App{cfg: loadConfig(t, nil), logger: newTestLogger()}

	store, err := a.openSessions(t.Context(), nil)
	require.NoError(t, err)
	assert.IsType(t, &identity.MemorySessionStore{}, store)
}
