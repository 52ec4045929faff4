package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/txlog"
)

// AccountHandler serves the signed-in user's identity, dashboard and
// transaction history.
type AccountHandler struct {
	Session middleware.SessionConfig
	History *txlog.History
}

// dashboardSections lists what each role's dashboard shows.
var dashboardSections = map[string][]string{
	model.RoleCustomer: {"schedules", "booking", "transactions"},
	model.RoleCashier:  {"schedules", "booking", "transactions"},
	model.RoleAdmin:    {"movies", "schedules", "studios", "discounts", "users"},
	model.RoleOwner:    {"reports", "transactions"},
}

// Me returns the session user, or 401 when there is none.
func (h *AccountHandler) Me(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if sess.Status != middleware.StatusAuthenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "status": sess.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": sess.User, "status": sess.Status})
}

// Logout clears the portal session cookie.  It always answers 204.
func (h *AccountHandler) Logout(c echo.Context) error {
	_ = middleware.Logout(c, h.Session)
	return c.NoContent(http.StatusNoContent)
}

// Dashboard returns the role-specific landing view.  Roles that book
// tickets also get their most recent transactions.
func (h *AccountHandler) Dashboard(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	role := sess.User.Role
	out := echo.Map{
		"role":     role,
		"user":     sess.User,
		"home":     "/dashboard/" + role,
		"sections": dashboardSections[role],
	}
	if role == model.RoleCustomer || role == model.RoleCashier {
		txs, err := h.History.List(c.Request().Context(), sess.User.ID, middleware.UpstreamFrom(c))
		if err != nil {
			return respondError(c, err)
		}
		if len(txs) > 5 {
			txs = txs[:5]
		}
		out["recent_transactions"] = txs
	}
	return c.JSON(http.StatusOK, out)
}

// Transactions returns the user's history, newest first.
func (h *AccountHandler) Transactions(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	txs, err := h.History.List(c.Request().Context(), sess.User.ID, middleware.UpstreamFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": txs})
}
