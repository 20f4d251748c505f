package handlers

import (
	"github.com/labstack/echo/v4"
)

// getUIDFromContext extracts the authenticated user's UID set by the auth
// middleware. Empty string means the request is not authenticated.
func getUIDFromContext(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
