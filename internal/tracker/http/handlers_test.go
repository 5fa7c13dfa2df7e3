package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to 400", domain.Invalid("title", "must not be empty"), http.StatusBadRequest},
		{"not found maps to 404", domain.ErrNotFound, http.StatusNotFound},
		{"cross-project maps to 409", domain.ErrCrossProject, http.StatusConflict},
		{"capacity maps to 409", domain.ErrCapacityExceeded, http.StatusConflict},
		{"configuration fault maps to 500", &domain.ConfigError{Detail: "two initial states"}, http.StatusInternalServerError},
		{"unexpected error maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)

			assert.Equal(t, tc.want, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["ok"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRespondError_HidesConfigDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &domain.ConfigError{Detail: "(proj-1, task) has multiple initial states"})

	assert.NotContains(t, w.Body.String(), "proj-1")
}

func TestQueryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/work-items?"+query, nil)
		return c
	}

	assert.Equal(t, 3, queryInt(newCtx("page=3"), "page", 1))
	assert.Equal(t, 1, queryInt(newCtx(""), "page", 1))
	assert.Equal(t, 25, queryInt(newCtx("page_size=abc"), "page_size", 25))
}
