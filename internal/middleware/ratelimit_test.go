package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(e *echo.Echo, mw echo.MiddlewareFunc, uid string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr.Code
		}
		return http.StatusInternalServerError
	}
	return rec.Code
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(1, 3).Middleware()

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(e, mw, "alice"))
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(0.001, 2).Middleware()

	assert.Equal(t, http.StatusOK, doRequest(e, mw, "alice"))
	assert.Equal(t, http.StatusOK, doRequest(e, mw, "alice"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, mw, "alice"))
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(0.001, 1).Middleware()

	assert.Equal(t, http.StatusOK, doRequest(e, mw, "alice"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, mw, "alice"))

	// A different user has their own bucket
	assert.Equal(t, http.StatusOK, doRequest(e, mw, "bob"))
}
