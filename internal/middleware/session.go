package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arminrs/consent-agreements/internal/session"
)

// SessionAuth returns an Echo middleware that authenticates requests by
// their session cookie. The cookie value is a signed token wrapping the
// session id; the id is then resolved against the Redis store to make
// sure the session is still alive (logout and expiry kill it server
// side, regardless of what the client still holds). On success the
// user id and session id are injected into the request context under
// "user_id" and "sid" for handlers to read. Any failure is a uniform
// 401 so callers cannot distinguish a forged cookie from a dead
// session.
func SessionAuth(secret string, store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			sid, err := session.ParseCookie(secret, cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			uid, err := store.UserID(c.Request().Context(), sid)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			c.Set("user_id", uid)
			c.Set("sid", sid)
			return next(c)
		}
	}
}
