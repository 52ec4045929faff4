// Package handler exposes the portal's HTTP handlers.  Handlers read the
// per-request upstream client and session set by the middleware package
// and answer with JSON bodies of the form {"error": "..."} on failure.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/payment"
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var ve *payment.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrDraftNotFound), errors.Is(err, payment.ErrNoPendingPayment):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidTicketCount),
		errors.Is(err, booking.ErrUnknownSeat):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrWrongStep),
		errors.Is(err, booking.ErrSeatCountMismatch),
		errors.Is(err, payment.ErrDuplicateOrder),
		errors.Is(err, payment.ErrPaymentPending):
		return http.StatusConflict
	case errors.Is(err, payment.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, payment.ErrIntentFailed):
		return http.StatusBadGateway
	}
	var ae *apiclient.Error
	if errors.As(err, &ae) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": message}.  Upstream failures carry
// the backend's message; unexpected errors are logged and hidden.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	var ae *apiclient.Error
	switch {
	case errors.Is(err, payment.ErrIntentFailed):
		msg = apiclient.MessageOf(err, payment.ErrIntentFailed.Error())
	case errors.As(err, &ae):
		msg = apiclient.MessageOf(err, "upstream request failed")
	case status == http.StatusInternalServerError:
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		msg = "internal error"
	}
	body := echo.Map{"error": msg}
	var ve *payment.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	return c.JSON(status, body)
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
