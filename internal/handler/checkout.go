package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/discount"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/payment"
)

// Reporter receives widget outcomes posted by the browser.  *payment.Bridge
// satisfies it.
type Reporter interface {
	Report(orderID string, r payment.Result) error
}

// CheckoutHandler turns a completed wizard into a payment and settles the
// widget's outcome.
type CheckoutHandler struct {
	Drafts   booking.Store
	Handoff  *payment.Handoff
	Reporter Reporter
	Log      *slog.Logger
}

type checkoutResp struct {
	OrderID    string `json:"order_id"`
	Token      string `json:"token"`
	OutcomeURL string `json:"outcome_url"`
}

type outcomeReq struct {
	Outcome string         `json:"outcome"`
	Detail  map[string]any `json:"detail"`
}

// Checkout validates the customer and creates the payment intent.  The
// browser opens the widget with the returned token and posts the widget's
// outcome to OutcomeURL.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var cust payment.Customer
	if err := c.Bind(&cust); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	sess := middleware.SessionFrom(c)
	w, err := h.Drafts.Load(ctx, sess.ID)
	if err != nil {
		return respondError(c, err)
	}
	draft, err := w.Proceed()
	if err != nil {
		return respondError(c, err)
	}
	up := middleware.UpstreamFrom(c)
	var quote model.Quote
	if w.Quote != nil {
		quote = *w.Quote
	} else {
		quote = discount.NewResolver(up, h.Log).Resolve(ctx, draft.Schedule.ID, draft.TotalPrice)
	}

	task, err := h.Handoff.Start(ctx, payment.Request{
		Backend:   up,
		Actor:     sess.User,
		SessionID: sess.ID,
		Customer:  cust,
		Draft:     draft,
		Quote:     quote,

		DraftVersion: w.UpdatedAt,
	})
	if err != nil {
		h.Log.Warn("checkout failed", "session_id", sess.ID, "user_id", sess.User.ID, "error", err)
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, checkoutResp{
		OrderID:    task.OrderID,
		Token:      task.Token,
		OutcomeURL: "/v1/payments/" + task.OrderID + "/outcome",
	})
}

// Outcome reports the widget's outcome and waits for the payment to
// settle.  Success answers with the receipt; pending and failed outcomes
// answer 409 and 402 and leave the booking in place for another attempt.
func (h *CheckoutHandler) Outcome(c echo.Context) error {
	var req outcomeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	outcome, ok := payment.ParseOutcome(req.Outcome)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown outcome"})
	}
	task, err := h.ownTask(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Reporter.Report(task.OrderID, payment.Result{Outcome: outcome, Detail: req.Detail}); err != nil {
		return respondError(c, err)
	}
	receipt, err := task.Wait(c.Request().Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return c.NoContent(http.StatusAccepted)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// Cancel abandons a payment the widget never reported on.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
	task, err := h.ownTask(c)
	if err != nil {
		return respondError(c, err)
	}
	task.Cancel()
	<-task.Done()
	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHandler) ownTask(c echo.Context) (*payment.Task, error) {
	task, ok := h.Handoff.Task(c.Param("order_id"))
	if !ok || task.SessionID != middleware.SessionFrom(c).ID {
		return nil, payment.ErrNoPendingPayment
	}
	return task, nil
}
