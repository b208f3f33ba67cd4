package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const HeaderAdminToken = "Ax-Admin-Token"

// RequireAdmin admits only requests carrying token in Ax-Admin-Token.
func RequireAdmin(token string) echo.MiddlewareFunc {
	return echomw.KeyAuthWithConfig(echomw.KeyAuthConfig{
		KeyLookup: "header:" + HeaderAdminToken,
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + HeaderAdminToken})
		},
	})
}
