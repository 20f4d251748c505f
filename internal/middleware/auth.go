package middleware

import (
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware accepts either a locally issued JWT or a raw Firebase ID
// token on the same Authorization header. The local JWT is checked first
// since it avoids a network round trip; either way the resolved UID ends
// up in the context under "uid".
func AuthMiddleware(authClient *auth.Client) echo.MiddlewareFunc {
	jwtCheck := JWTAuthMiddleware()(passthrough)
	firebaseCheck := FirebaseAuthMiddleware(authClient)(passthrough)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := jwtCheck(c); err == nil {
				return next(c)
			}
			if err := firebaseCheck(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func passthrough(echo.Context) error { return nil }
