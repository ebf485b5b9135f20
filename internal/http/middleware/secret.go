package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

// WebhookSecretMiddleware guards the Daraja callback routes with a
// shared-secret header. An empty configured secret disables the check
// (dev / sandbox, where callbacks come through a tunnel).
func WebhookSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}
			got := strings.TrimSpace(c.Request().Header.Get("X-Webhook-Secret"))
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid webhook secret"})
			}
			return next(c)
		}
	}
}
