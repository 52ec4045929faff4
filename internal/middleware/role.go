package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Decision is what the role guard does with a request.
type Decision int

const (
	Allow Decision = iota
	Wait           // identity not resolved yet
	Login          // no session
	Deny           // authenticated, role not allowed
)

// Paths the guard sends browsers to.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Decide is the whole guard.  An empty allow-list admits any
// authenticated user.
func Decide(status AuthStatus, role string, allowed []string) Decision {
	switch status {
	case StatusLoading:
		return Wait
	case StatusAuthenticated:
	default:
		return Login
	}
	if len(allowed) == 0 {
		return Allow
	}
	for _, r := range allowed {
		if r == role {
			return Allow
		}
	}
	return Deny
}

// RequireRole returns a middleware that enforces that the session user has
// one of the specified roles.  Browsers are redirected; API callers get a
// JSON error.  It assumes Authenticate ran earlier in the chain.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := append([]string(nil), roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			switch Decide(sess.Status, sess.User.Role, allowed) {
			case Allow:
				return next(c)
			case Wait:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "loading", "message": "identity not resolved yet"})
			case Login:
				if wantsHTML(c) {
					return c.Redirect(http.StatusFound, LoginPath)
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			default:
				if wantsHTML(c) {
					return c.Redirect(http.StatusFound, UnauthorizedPath)
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
		}
	}
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
