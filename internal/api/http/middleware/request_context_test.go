package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenContext struct {
	requestID    string
	actorID      string
	ctxRequestID string
	ctxActorID   string
}

func contextRouter(seen *seenContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContextMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		seen.requestID = c.GetString("request_id")
		seen.actorID = c.GetString("actor_id")
		seen.ctxRequestID = RequestID(c.Request.Context())
		seen.ctxActorID = ActorID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestContextMiddleware(t *testing.T) {
	t.Run("propagates supplied request and actor ids", func(t *testing.T) {
		var seen seenContext
		r := contextRouter(&seen)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-Id", "rid-123")
		req.Header.Set("X-Actor-Id", "user-7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "rid-123", w.Header().Get("X-Request-Id"))
		assert.Equal(t, "rid-123", seen.requestID)
		assert.Equal(t, "user-7", seen.actorID)
		assert.Equal(t, "rid-123", seen.ctxRequestID)
		assert.Equal(t, "user-7", seen.ctxActorID)
	})

	t.Run("generates a request id when none is supplied", func(t *testing.T) {
		var seen seenContext
		r := contextRouter(&seen)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		rid := w.Header().Get("X-Request-Id")
		require.NotEmpty(t, rid)
		_, err := uuid.Parse(rid)
		assert.NoError(t, err)
		assert.Equal(t, rid, seen.requestID)
	})

	t.Run("missing actor stays unset", func(t *testing.T) {
		var seen seenContext
		r := contextRouter(&seen)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Empty(t, seen.actorID)
		assert.Empty(t, seen.ctxActorID)
	})
}
