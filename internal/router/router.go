// Package router defines how HTTP routes are registered for the portal.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinema-ticket-portal/internal/handler"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Browse   *handler.BrowseHandler
	Booking  *handler.BookingHandler
	Checkout *handler.CheckoutHandler
	Account  *handler.AccountHandler
}

// Guards are the middleware applied per route group.  Upstream runs on
// every /v1 route; Session resolves identity for the protected groups.
type Guards struct {
	Upstream  echo.MiddlewareFunc
	Session   echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// bookingRoles may use the booking wizard and checkout.
var bookingRoles = []string{model.RoleCustomer, model.RoleCashier}

// RegisterRoutes registers routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the catalog, which guests can browse.  Catalog
// reads are cached.
func RegisterPublic(e *echo.Echo, h Handlers, g Guards) {
	pub := e.Group("/v1", g.Upstream)
	pub.GET("/schedules", h.Browse.ListSchedules, g.Cache)
	pub.GET("/schedules/:id", h.Browse.GetSchedule, g.Cache)
	pub.GET("/movies/:id", h.Browse.GetMovie, g.Cache)
	pub.POST("/logout", h.Account.Logout)
}

// RegisterAccount registers identity and dashboard routes.  /v1/me answers
// for any session state; the dashboard needs one of the four roles.
func RegisterAccount(e *echo.Echo, h Handlers, g Guards) {
	acc := e.Group("/v1", g.Upstream, g.Session)
	acc.GET("/me", h.Account.Me)
	acc.GET("/dashboard", h.Account.Dashboard, middleware.RequireRole(
		model.RoleCustomer, model.RoleAdmin, model.RoleOwner, model.RoleCashier,
	))
}

// RegisterBooking registers the booking wizard, checkout and history
// routes.  All of them require a customer or cashier session.
func RegisterBooking(e *echo.Echo, h Handlers, g Guards) {
	b := e.Group("/v1", g.Upstream, g.Session, middleware.RequireRole(bookingRoles...))

	b.POST("/booking", h.Booking.Start)
	b.GET("/booking", h.Booking.Get)
	b.DELETE("/booking", h.Booking.Discard)
	b.PUT("/booking/tickets", h.Booking.SetTickets)
	b.POST("/booking/seats/:label", h.Booking.ToggleSeat)
	b.POST("/booking/advance", h.Booking.Advance)
	b.POST("/booking/back", h.Booking.Back)
	b.POST("/booking/proceed", h.Booking.Proceed)

	b.POST("/checkout", h.Checkout.Checkout, g.RateLimit)
	b.POST("/payments/:order_id/outcome", h.Checkout.Outcome)
	b.DELETE("/payments/:order_id", h.Checkout.Cancel)

	b.GET("/transactions", h.Account.Transactions)
}

// Register wires every group.
func Register(e *echo.Echo, h Handlers, g Guards) {
	RegisterRoutes(e)
	RegisterPublic(e, h, g)
	RegisterAccount(e, h, g)
	RegisterBooking(e, h, g)
}
