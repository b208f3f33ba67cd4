package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"nftloan-backend/internal/domain/ledger"

	"github.com/labstack/echo/v4"
)

const (
	HeaderCallerID = "Ax-Caller-Id"
	ctxCallerKey   = "caller_id"
)

// ':' is excluded so callers can never name an escrow holder.
var reCallerID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

func ValidCallerID(id string) bool {
	return reCallerID.MatchString(id) && id != ledger.DepositSource
}

// RequireCaller authenticates the request by its Ax-Caller-Id header and
// stores the identity for handlers.
func RequireCaller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderCallerID))
			if id == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderCallerID})
			}
			if !ValidCallerID(id) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderCallerID})
			}
			c.Set(ctxCallerKey, id)
			return next(c)
		}
	}
}

// CallerFrom returns the identity set by RequireCaller, or "".
func CallerFrom(c echo.Context) string {
	id, _ := c.Get(ctxCallerKey).(string)
	return id
}
