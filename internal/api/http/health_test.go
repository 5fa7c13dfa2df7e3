package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRouter(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler_Live(t *testing.T) {
	r := healthRouter(NewHealthHandler("taskforge-backend", "1.0.0", nil, nil))

	code, body := getJSON(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "taskforge-backend", body["service"])
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("reports a reachable cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		r := healthRouter(NewHealthHandler("taskforge-backend", "1.0.0", nil, client))

		code, body := getJSON(t, r, "/health")
		assert.Equal(t, http.StatusOK, code)

		components := body["components"].(map[string]any)
		assert.Equal(t, "disabled", components["postgres"])
		assert.Equal(t, "up", components["kanban_cache"])
	})

	t.Run("a dead cache degrades but stays ready", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		mr.Close()

		r := healthRouter(NewHealthHandler("taskforge-backend", "1.0.0", nil, client))

		code, body := getJSON(t, r, "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["ok"])

		components := body["components"].(map[string]any)
		assert.Equal(t, "down", components["kanban_cache"])
	})

	t.Run("no cache configured reads as disabled", func(t *testing.T) {
		r := healthRouter(NewHealthHandler("taskforge-backend", "1.0.0", nil, nil))

		_, body := getJSON(t, r, "/health")
		components := body["components"].(map[string]any)
		assert.Equal(t, "disabled", components["kanban_cache"])
	})
}
