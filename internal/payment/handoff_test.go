package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/queue"
)

type fakeBackend struct {
	mu         sync.Mutex
	cashier    bool
	intentReq  model.PaymentIntentRequest
	intentErr  error
	confirmErr error
	confirms   []model.PaymentConfirmation
	confirmDur time.Duration
}

func (f *fakeBackend) CreatePaymentIntent(_ context.Context, cashier bool, req model.PaymentIntentRequest) (model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cashier = cashier
	f.intentReq = req
	if f.intentErr != nil {
		return model.PaymentIntent{}, f.intentErr
	}
	return model.PaymentIntent{Token: "snap-token", OrderID: "ORD-42"}, nil
}

func (f *fakeBackend) ConfirmPayment(ctx context.Context, conf model.PaymentConfirmation) error {
	if f.confirmDur > 0 {
		select {
		case <-time.After(f.confirmDur):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, conf)
	return f.confirmErr
}

type fakeRecorder struct {
	mu  sync.Mutex
	txs []model.Transaction
}

func (r *fakeRecorder) Record(_ context.Context, _ int64, tx model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

var draftVersion = time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

type fakeDrafts struct {
	mu      sync.Mutex
	stored  map[string]*booking.Wizard
	deleted []string
}

func (d *fakeDrafts) put(w *booking.Wizard) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stored[w.SessionID] = w
}

func (d *fakeDrafts) Load(_ context.Context, id string) (*booking.Wizard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.stored[id]
	if !ok {
		return nil, booking.ErrDraftNotFound
	}
	return w, nil
}

func (d *fakeDrafts) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.stored, id)
	d.deleted = append(d.deleted, id)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.PaymentSucceededEvent
}

func (p *fakePublisher) PublishPaymentSucceeded(_ context.Context, ev queue.PaymentSucceededEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type handoffFixture struct {
	bridge    *Bridge
	backend   *fakeBackend
	recorder  *fakeRecorder
	drafts    *fakeDrafts
	publisher *fakePublisher
	handoff   *Handoff
}

func newFixture(confirmTimeout time.Duration) *handoffFixture {
	f := &handoffFixture{
		bridge:    NewBridge(),
		backend:   &fakeBackend{},
		recorder:  &fakeRecorder{},
		drafts:    &fakeDrafts{stored: map[string]*booking.Wizard{}},
		publisher: &fakePublisher{},
	}
	f.drafts.put(&booking.Wizard{SessionID: "sess-1", Schedule: model.Schedule{ID: 3}, UpdatedAt: draftVersion})
	f.handoff = NewHandoff(Options{
		Provider:       f.bridge,
		Recorder:       f.recorder,
		Drafts:         f.drafts,
		Publisher:      f.publisher,
		PaymentTimeout: time.Second,
		ConfirmTimeout: confirmTimeout,
	})
	return f
}

func (f *handoffFixture) request(role string) Request {
	price := decimal.NewFromInt(50000)
	return Request{
		Backend:   f.backend,
		Actor:     model.User{ID: 7, Name: "Ana", Role: role},
		SessionID: "sess-1",
		Customer:  Customer{Name: "Ana", Email: "ana@example.com"},
		Draft: booking.Draft{
			Schedule:      model.Schedule{ID: 3, Price: price, Movie: model.Movie{Title: "Dune"}},
			SelectedSeats: []string{"A1", "A2"},
			TicketCount:   2,
			TotalPrice:    decimal.NewFromInt(100000),
		},
		Quote: model.Quote{
			Subtotal: decimal.NewFromInt(100000),
			Discount: &model.Discount{ID: 9, Name: "PROMO10", Type: model.DiscountPercentage, Amount: decimal.NewFromInt(10)},
			Saved:    decimal.NewFromInt(10000),
			Total:    decimal.NewFromInt(90000),
		},
		DraftVersion: draftVersion,
	}
}

func waitTask(t *testing.T, task *Task) (*Receipt, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rec, err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("task did not settle")
	}
	return rec, err
}

func TestHandoffSuccessRecordsConfirmsAndPublishes(t *testing.T) {
	f := newFixture(time.Second)
	task, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.Token != "snap-token" || task.OrderID != "ORD-42" {
		t.Fatalf("task = %+v", task)
	}
	if f.backend.cashier {
		t.Fatal("customer routed to cashier endpoint")
	}
	if f.backend.intentReq.DiscountID == nil || *f.backend.intentReq.DiscountID != 9 {
		t.Fatalf("discount id not forwarded: %+v", f.backend.intentReq)
	}

	if err := f.bridge.Report("ORD-42", Result{Outcome: OutcomeSucceeded}); err != nil {
		t.Fatalf("report: %v", err)
	}
	rec, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !rec.Confirmed {
		t.Fatal("receipt not confirmed")
	}
	if rec.Redirect != "/booking/success?order_id=ORD-42" {
		t.Fatalf("redirect = %q", rec.Redirect)
	}
	if len(f.recorder.txs) != 1 {
		t.Fatalf("recorded %d transactions", len(f.recorder.txs))
	}
	tx := f.recorder.txs[0]
	if tx.PaymentStatus != model.PaymentStatusSuccess || !tx.TotalPrice.Equal(decimal.NewFromInt(90000)) {
		t.Fatalf("transaction = %+v", tx)
	}
	if len(f.backend.confirms) != 1 || f.backend.confirms[0].OrderID != "ORD-42" {
		t.Fatalf("confirms = %+v", f.backend.confirms)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].MovieTitle != "Dune" {
		t.Fatalf("events = %+v", f.publisher.events)
	}
	if len(f.drafts.deleted) != 1 || f.drafts.deleted[0] != "sess-1" {
		t.Fatalf("drafts deleted = %v", f.drafts.deleted)
	}
	if _, ok := f.handoff.Task("ORD-42"); ok {
		t.Fatal("settled task still registered")
	}
}

func TestHandoffKeepsBookingStartedDuringPayment(t *testing.T) {
	f := newFixture(time.Second)
	task, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// the user opened another schedule while the widget was up
	f.drafts.put(&booking.Wizard{SessionID: "sess-1", Schedule: model.Schedule{ID: 5}, UpdatedAt: draftVersion.Add(time.Minute)})

	if err := f.bridge.Report("ORD-42", Result{Outcome: OutcomeSucceeded}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := waitTask(t, task); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(f.drafts.deleted) != 0 {
		t.Fatalf("drafts deleted = %v, want the new booking kept", f.drafts.deleted)
	}
	if w, _ := f.drafts.Load(context.Background(), "sess-1"); w == nil || w.Schedule.ID != 5 {
		t.Fatalf("stored draft = %+v", w)
	}
}

func TestHandoffCashierUsesCashierEndpoint(t *testing.T) {
	f := newFixture(time.Second)
	req := f.request(model.RoleCashier)
	req.Customer = Customer{Name: "Walk-in"}
	task, err := f.handoff.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !f.backend.cashier {
		t.Fatal("cashier routed to customer endpoint")
	}
	task.Cancel()
	_, _ = waitTask(t, task)
}

func TestHandoffConfirmFailureStillSucceeds(t *testing.T) {
	f := newFixture(50 * time.Millisecond)
	f.backend.confirmDur = time.Second
	task, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer))
	if err != nil {
		t.Fatal(err)
	}
	_ = f.bridge.Report("ORD-42", Result{Outcome: OutcomeSucceeded})
	rec, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if rec.Confirmed {
		t.Fatal("confirmation that timed out reported as confirmed")
	}
	if len(f.recorder.txs) != 1 {
		t.Fatal("transaction not recorded")
	}
	if f.publisher.events[0].Confirmed != rec.Confirmed {
		t.Fatal("event confirmation flag disagrees with receipt")
	}
}

func TestHandoffPendingAndFailure(t *testing.T) {
	cases := []struct {
		outcome Outcome
		want    error
	}{
		{OutcomePending, ErrPaymentPending},
		{OutcomeFailed, ErrPaymentFailed},
		{OutcomeClosed, ErrPaymentFailed},
	}
	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			f := newFixture(time.Second)
			task, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer))
			if err != nil {
				t.Fatal(err)
			}
			_ = f.bridge.Report("ORD-42", Result{Outcome: tc.outcome})
			_, err = waitTask(t, task)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(f.recorder.txs) != 0 || len(f.drafts.deleted) != 0 || len(f.publisher.events) != 0 {
				t.Fatal("non-successful payment had side effects")
			}
		})
	}
}

func TestHandoffCancelSettlesAsFailed(t *testing.T) {
	f := newFixture(time.Second)
	task, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer))
	if err != nil {
		t.Fatal(err)
	}
	task.Cancel()
	if _, err := waitTask(t, task); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestHandoffValidationStopsBeforeIntent(t *testing.T) {
	f := newFixture(time.Second)
	req := f.request(model.RoleCustomer)
	req.Customer.Email = ""
	_, err := f.handoff.Start(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v", err)
	}
	if f.backend.intentReq.ScheduleID != 0 {
		t.Fatal("intent created for invalid customer")
	}
}

func TestHandoffIntentFailureKeepsDraft(t *testing.T) {
	f := newFixture(time.Second)
	f.backend.intentErr = errors.New("boom")
	if _, err := f.handoff.Start(context.Background(), f.request(model.RoleCustomer)); !errors.Is(err, ErrIntentFailed) {
		t.Fatalf("err = %v, want ErrIntentFailed", err)
	}
	if len(f.drafts.deleted) != 0 || f.bridge.Pending() != 0 {
		t.Fatal("failed intent left state behind")
	}
}
