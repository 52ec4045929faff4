package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/metrics"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/queue"
	"github.com/iliyamo/cinema-ticket-portal/internal/service"
)

// Default bounds for the widget wait and the backend confirmation.
const (
	DefaultPaymentTimeout = 15 * time.Minute
	DefaultConfirmTimeout = 10 * time.Second
)

var (
	ErrPaymentPending = errors.New("payment is pending")
	ErrPaymentFailed  = errors.New("payment failed or was closed")
	ErrDuplicateOrder = errors.New("a payment for this order is already in progress")
	ErrIntentFailed   = errors.New("payment could not be started")
)

// Backend is the per-session slice of the API client the handoff needs.
type Backend interface {
	CreatePaymentIntent(ctx context.Context, cashier bool, req model.PaymentIntentRequest) (model.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, conf model.PaymentConfirmation) error
}

// Recorder writes the client-side transaction record.
type Recorder interface {
	Record(ctx context.Context, userID int64, tx model.Transaction) error
}

// DraftRemover discards a booking once it is paid for.  booking.Store
// satisfies it.
type DraftRemover interface {
	Load(ctx context.Context, sessionID string) (*booking.Wizard, error)
	Delete(ctx context.Context, sessionID string) error
}

// Request is one checkout submission.
type Request struct {
	Backend   Backend
	Actor     model.User
	SessionID string
	Customer  Customer
	Draft     booking.Draft
	Quote     model.Quote
	// DraftVersion is the UpdatedAt of the wizard the draft came from.  The
	// stored wizard is discarded after payment only while it still carries
	// this version.
	DraftVersion time.Time
}

// Receipt is what a successful payment yields.  Confirmed is false when the
// backend confirmation call failed; the payment itself still succeeded.
type Receipt struct {
	OrderID     string            `json:"order_id"`
	Transaction model.Transaction `json:"transaction"`
	Confirmed   bool              `json:"confirmed"`
	Redirect    string            `json:"redirect"`
}

// Task is a payment waiting on the widget.  It ends exactly once, with a
// receipt or an error.
type Task struct {
	OrderID   string
	Token     string
	SessionID string

	done    chan struct{}
	cancel  context.CancelFunc
	receipt *Receipt
	err     error
}

// Done is closed when the task has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel abandons the payment; the task settles as closed.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task settles or ctx ends.
func (t *Task) Wait(ctx context.Context) (*Receipt, error) {
	select {
	case <-t.done:
		return t.receipt, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Options configures a Handoff.  Zero values pick defaults.
type Options struct {
	Provider       Provider
	Recorder       Recorder
	Drafts         DraftRemover
	Publisher      service.Publisher
	PaymentTimeout time.Duration
	ConfirmTimeout time.Duration
	SuccessPath    string
	Logger         *slog.Logger
}

// Handoff turns checkout submissions into payment tasks.
type Handoff struct {
	opts  Options
	log   *slog.Logger
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewHandoff builds a handoff.  Provider and Recorder are required.
func NewHandoff(opts Options) *Handoff {
	if opts.Provider == nil || opts.Recorder == nil {
		panic("payment: NewHandoff requires a provider and a recorder")
	}
	if opts.Publisher == nil {
		opts.Publisher = service.NopPublisher{}
	}
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = DefaultPaymentTimeout
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.SuccessPath == "" {
		opts.SuccessPath = "/booking/success"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handoff{opts: opts, log: log, tasks: map[string]*Task{}}
}

// Start validates the customer, creates the payment intent for the actor's
// role and starts waiting for the widget.  Errors returned here happen
// before the widget opens: the draft is untouched and the user can retry.
func (h *Handoff) Start(ctx context.Context, req Request) (*Task, error) {
	cashier := req.Actor.Role == model.RoleCashier
	if err := req.Customer.Validate(cashier); err != nil {
		return nil, err
	}
	if req.Quote.Subtotal.IsZero() && req.Quote.Total.IsZero() {
		req.Quote = model.Undiscounted(req.Draft.TotalPrice)
	}

	intentReq := model.PaymentIntentRequest{
		ScheduleID:    req.Draft.Schedule.ID,
		Seats:         req.Draft.SelectedSeats,
		TicketCount:   req.Draft.TicketCount,
		Subtotal:      req.Quote.Subtotal,
		TotalPrice:    req.Quote.Total,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
	}
	if req.Quote.Discount != nil {
		id := req.Quote.Discount.ID
		intentReq.DiscountID = &id
	}
	intent, err := req.Backend.CreatePaymentIntent(ctx, cashier, intentReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntentFailed, err)
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.opts.PaymentTimeout)
	t := &Task{
		OrderID:   intent.OrderID,
		Token:     intent.Token,
		SessionID: req.SessionID,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	h.mu.Lock()
	if _, busy := h.tasks[intent.OrderID]; busy {
		h.mu.Unlock()
		cancel()
		return nil, ErrDuplicateOrder
	}
	h.tasks[intent.OrderID] = t
	h.mu.Unlock()

	if p, ok := h.opts.Provider.(Preparer); ok {
		p.Prepare(intent)
	}
	metrics.PaymentStarted()
	go h.run(runCtx, t, req, intent)
	return t, nil
}

// Task returns the in-flight task for an order.
func (h *Handoff) Task(orderID string) (*Task, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tasks[orderID]
	return t, ok
}

func (h *Handoff) run(ctx context.Context, t *Task, req Request, intent model.PaymentIntent) {
	defer func() {
		t.cancel()
		h.mu.Lock()
		delete(h.tasks, t.OrderID)
		h.mu.Unlock()
		metrics.PaymentSettled()
		close(t.done)
	}()

	res, err := h.opts.Provider.Pay(ctx, intent)
	if err != nil && res.Outcome == "" {
		res.Outcome = OutcomeClosed
	}
	metrics.PaymentOutcome(req.Actor.Role, string(res.Outcome))
	h.log.Info("payment outcome", "order_id", t.OrderID, "user_id", req.Actor.ID, "outcome", res.Outcome)

	switch res.Outcome {
	case OutcomeSucceeded:
		t.receipt = h.settle(ctx, req, intent, res)
	case OutcomePending:
		t.err = ErrPaymentPending
	default:
		t.err = ErrPaymentFailed
	}
}

// settle records the sale, confirms it with the backend, announces it and
// discards the draft.  The confirmation is awaited, bounded by
// ConfirmTimeout, before the receipt is handed out.
func (h *Handoff) settle(ctx context.Context, req Request, intent model.PaymentIntent, res Result) *Receipt {
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()
	tx := model.Transaction{
		OrderID:       intent.OrderID,
		Schedule:      req.Draft.Schedule,
		Seats:         req.Draft.SelectedSeats,
		TotalPrice:    req.Quote.Total,
		PaymentStatus: model.PaymentStatusSuccess,
		Type:          model.TransactionTypeMovie,
		CreatedAt:     now,
	}
	if err := h.opts.Recorder.Record(ctx, req.Actor.ID, tx); err != nil {
		h.log.Error("record transaction failed", "order_id", intent.OrderID, "error", err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, h.opts.ConfirmTimeout)
	defer cancel()
	confirmed := true
	if err := req.Backend.ConfirmPayment(confirmCtx, model.PaymentConfirmation{
		OrderID:           intent.OrderID,
		TransactionStatus: string(res.Outcome),
		ScheduleID:        req.Draft.Schedule.ID,
		Seats:             req.Draft.SelectedSeats,
		TotalPrice:        req.Quote.Total,
		Detail:            res.Detail,
	}); err != nil {
		confirmed = false
		h.log.Error("payment confirmation failed", "order_id", intent.OrderID, "error", err)
	}

	ev := queue.PaymentSucceededEvent{
		OrderID:     intent.OrderID,
		UserID:      req.Actor.ID,
		ActorRole:   req.Actor.Role,
		Customer:    req.Customer.Name,
		ScheduleID:  req.Draft.Schedule.ID,
		MovieTitle:  req.Draft.Schedule.Movie.Title,
		StudioName:  req.Draft.Schedule.Studio.Name,
		ShowDate:    req.Draft.Schedule.ShowDate,
		ShowTime:    req.Draft.Schedule.ShowTime,
		Seats:       req.Draft.SelectedSeats,
		Subtotal:    req.Quote.Subtotal.String(),
		Total:       req.Quote.Total.String(),
		Confirmed:   confirmed,
		SucceededAt: now.Format(time.RFC3339),
	}
	if req.Quote.Discount != nil {
		id := req.Quote.Discount.ID
		ev.DiscountID = &id
	}
	if err := h.opts.Publisher.PublishPaymentSucceeded(ctx, ev); err != nil {
		h.log.Warn("publish payment event failed", "order_id", intent.OrderID, "error", err)
	}

	h.discardDraft(ctx, req)

	return &Receipt{
		OrderID:     intent.OrderID,
		Transaction: tx,
		Confirmed:   confirmed,
		Redirect:    h.opts.SuccessPath + "?order_id=" + url.QueryEscape(intent.OrderID),
	}
}

// discardDraft deletes the session's wizard if it is still the one that was
// paid for.  A booking started while the widget was open is kept.
func (h *Handoff) discardDraft(ctx context.Context, req Request) {
	if h.opts.Drafts == nil || req.SessionID == "" {
		return
	}
	w, err := h.opts.Drafts.Load(ctx, req.SessionID)
	if errors.Is(err, booking.ErrDraftNotFound) {
		return
	}
	if err != nil {
		h.log.Warn("load paid draft failed", "session_id", req.SessionID, "error", err)
		return
	}
	if !w.UpdatedAt.Equal(req.DraftVersion) || w.Schedule.ID != req.Draft.Schedule.ID {
		h.log.Info("draft changed during payment; kept", "session_id", req.SessionID, "schedule_id", req.Draft.Schedule.ID)
		return
	}
	if err := h.opts.Drafts.Delete(ctx, req.SessionID); err != nil {
		h.log.Warn("discard paid draft failed", "session_id", req.SessionID, "error", err)
	}
}
