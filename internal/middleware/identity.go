package middleware

// identity.go holds helpers shared by the rate limiter and the cache for
// naming the caller of a request.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the session user's id, or "guest" when the request is
// not authenticated.
func userID(c echo.Context) string {
	s := SessionFrom(c)
	if s.Status != StatusAuthenticated || s.User.ID == 0 {
		return "guest"
	}
	return strconv.FormatInt(s.User.ID, 10)
}

// sessionID returns the portal session id, or "anon".
func sessionID(c echo.Context) string {
	if s := SessionFrom(c); s.ID != "" {
		return s.ID
	}
	return "anon"
}
