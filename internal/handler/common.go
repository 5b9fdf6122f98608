package handler // handler defines http handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated user id placed in the
// context by the session middleware.
func currentUserID(c echo.Context) (string, error) {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("no user_id in context")
}

// currentSID extracts the session id placed in the context by the
// session middleware. The wizard handlers use it to address the draft.
func currentSID(c echo.Context) (string, error) {
	if s, ok := c.Get("sid").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("no session id in context")
}
