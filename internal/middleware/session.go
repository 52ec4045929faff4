package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/utils"
)

// AuthStatus is how far identity resolution got for a request.
type AuthStatus string

const (
	StatusLoading         AuthStatus = "loading"
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusAuthenticated   AuthStatus = "authenticated"
)

const (
	ctxUpstream = "upstream"
	ctxSession  = "session"
)

// Session is the resolved identity of a request.  ID keys the booking
// draft and is stable for the lifetime of the portal cookie.
type Session struct {
	ID     string
	Status AuthStatus
	User   model.User
}

// SessionConfig controls the portal session cookie.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Upstream attaches an API client that forwards the browser's cookies
// (minus the portal's own) to the backend.  Every route gets one so public
// reads go out with whatever session the browser holds.
func Upstream(client *apiclient.Client, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var fwd []*http.Cookie
			for _, ck := range c.Request().Cookies() {
				if ck.Name != cookieName {
					fwd = append(fwd, ck)
				}
			}
			c.Set(ctxUpstream, client.WithCookies(fwd))
			return next(c)
		}
	}
}

// UpstreamFrom returns the per-request API client set by Upstream.
func UpstreamFrom(c echo.Context) *apiclient.Client {
	cl, _ := c.Get(ctxUpstream).(*apiclient.Client)
	return cl
}

// Authenticate resolves who is making the request.  A valid portal cookie
// is trusted as is; otherwise the backend is asked for the current user
// and, on success, a fresh cookie is issued.  A 401 from the backend means
// the browser has no session; any other failure leaves the status loading.
func Authenticate(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := &Session{Status: StatusUnauthenticated}
			c.Set(ctxSession, sess)

			if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
				if claims, err := utils.ParseSessionToken(cfg.Secret, ck.Value); err == nil {
					sess.ID = claims.SID
					sess.User = claims.User()
					sess.Status = StatusAuthenticated
					return next(c)
				}
			}

			up := UpstreamFrom(c)
			if up == nil {
				sess.Status = StatusLoading
				return next(c)
			}
			u, err := up.CurrentUser(c.Request().Context())
			switch {
			case err == nil:
				tok, err := utils.NewSessionToken(cfg.Secret, u, "", cfg.TTL)
				if err != nil {
					slog.Error("session: issue token failed", "error", err)
					sess.Status = StatusLoading
					return next(c)
				}
				writeSessionCookie(c, cfg, tok.Token, tok.Exp)
				sess.ID = tok.SID
				sess.User = u
				sess.Status = StatusAuthenticated
			case apiclient.IsUnauthorized(err):
				clearSessionCookie(c, cfg)
			default:
				slog.Warn("session: identity lookup failed", "error", err)
				sess.Status = StatusLoading
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session resolved by Authenticate.  Requests that
// never passed through Authenticate get an unauthenticated session.
func SessionFrom(c echo.Context) *Session {
	if s, ok := c.Get(ctxSession).(*Session); ok {
		return s
	}
	return &Session{Status: StatusUnauthenticated}
}

// ErrNoSession is returned by Logout when nothing needed clearing.
var ErrNoSession = errors.New("no portal session")

// Logout drops the portal session cookie.
func Logout(c echo.Context, cfg SessionConfig) error {
	if _, err := c.Cookie(cfg.CookieName); err != nil {
		return ErrNoSession
	}
	clearSessionCookie(c, cfg)
	return nil
}

func writeSessionCookie(c echo.Context, cfg SessionConfig, value string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, cfg SessionConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
