package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/research-hub/backend/internal/follow"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unauthenticated", follow.ErrUnauthenticated, http.StatusUnauthorized},
		{"not found", follow.ErrNotFound, http.StatusNotFound},
		{"not addressee", follow.ErrUnauthorized, http.StatusForbidden},
		{"self follow", follow.ErrSelfFollow, http.StatusBadRequest},
		{"duplicate request", follow.ErrDuplicateRequest, http.StatusConflict},
		{"already following", follow.ErrAlreadyFollowing, http.StatusConflict},
		{"not following", follow.ErrNotFollowing, http.StatusConflict},
		{"unexpected", errors.New("mongo fell over"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			httpErr, ok := followError(tc.err).(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tc.code, httpErr.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, HealthCheck(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healty")
}

func TestGetUIDFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, "", getUIDFromContext(c))

	c.Set("uid", "alice")
	assert.Equal(t, "alice", getUIDFromContext(c))
}
