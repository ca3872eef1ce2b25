package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// AuthenticatedKey is the session value set by a successful admin login.
const AuthenticatedKey = "authenticated"

// RequireAdmin gates a route group behind the admin session. Authorization
// is entirely this layer's responsibility; the engine trusts its callers.
func RequireAdmin(store *sessions.CookieStore, sessionName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := store.Get(c.Request(), sessionName)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			if auth, ok := session.Values[AuthenticatedKey].(bool); !ok || !auth {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
