package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/handler"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/model"
	"github.com/iliyamo/cinema-ticket-portal/internal/payment"
	"github.com/iliyamo/cinema-ticket-portal/internal/txlog"
	"github.com/iliyamo/cinema-ticket-portal/internal/utils"
)

const testSecret = "router-test-secret"

// fakeBackend stands in for the REST backend.
type fakeBackend struct {
	mu        sync.Mutex
	role      string
	intents   []map[string]any
	intentURL []string
	confirms  int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/api/user":
		if f.role == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthenticated."}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":7,"name":"Ana","email":"ana@example.com","role":"`+f.role+`"}}`)
	case "/api/schedules":
		_, _ = io.WriteString(w, `{"data":[{"id":3,"price":50000,"show_date":"2026-11-01","show_time":"19:00",
			"movie":{"id":1,"title":"Dune"},"studio":{"id":2,"name":"Studio 1","rows":5,"columns":20}}]}`)
	case "/api/check-discount":
		_, _ = io.WriteString(w, `{"data":{"discount":{"id":9,"name":"PROMO10","type":"percentage","amount":10}}}`)
	case apiclient.PathMoviePayment, apiclient.PathCashierPayment:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.intents = append(f.intents, body)
		f.intentURL = append(f.intentURL, r.URL.Path)
		_, _ = io.WriteString(w, `{"token":"snap-123","order_id":"ORD-1"}`)
	case apiclient.PathPaymentCallback:
		f.confirms++
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	case "/api/transactions":
		_, _ = io.WriteString(w, `{"data":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found"}`)
	}
}

type portal struct {
	e       *echo.Echo
	backend *fakeBackend
	history *txlog.History
	drafts  *booking.MemoryStore
}

func newPortal(t *testing.T, role string) *portal {
	t.Helper()
	fb := &fakeBackend{role: role}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessCfg := middleware.SessionConfig{Secret: testSecret, CookieName: "portal_session", TTL: time.Minute}
	drafts := booking.NewMemoryStore(time.Minute)
	history := txlog.NewHistory(txlog.NewMemoryStore(), log)
	bridge := payment.NewBridge()
	handoff := payment.NewHandoff(payment.Options{
		Provider:       bridge,
		Recorder:       history,
		Drafts:         drafts,
		PaymentTimeout: 5 * time.Second,
		ConfirmTimeout: time.Second,
		Logger:         log,
	})
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := echo.New()
	Register(e, Handlers{
		Browse:   &handler.BrowseHandler{Log: log},
		Booking:  &handler.BookingHandler{Drafts: drafts, Log: log},
		Checkout: &handler.CheckoutHandler{Drafts: drafts, Handoff: handoff, Reporter: bridge, Log: log},
		Account:  &handler.AccountHandler{Session: sessCfg, History: history},
	}, Guards{
		Upstream:  middleware.Upstream(client, sessCfg.CookieName),
		Session:   middleware.Authenticate(sessCfg),
		Cache:     passthrough,
		RateLimit: passthrough,
	})
	return &portal{e: e, backend: fb, history: history, drafts: drafts}
}

func (p *portal) cookie(t *testing.T, role string) *http.Cookie {
	t.Helper()
	tok, err := utils.NewSessionToken(testSecret, model.User{ID: 7, Name: "Ana", Role: role}, "sess-7", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: "portal_session", Value: tok.Token}
}

func (p *portal) do(t *testing.T, ck *http.Cookie, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, code, rec.Body.String())
	}
}

func TestBookingToPaymentFlow(t *testing.T) {
	p := newPortal(t, model.RoleCustomer)
	ck := p.cookie(t, model.RoleCustomer)

	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking", `{"schedule_id":3}`), http.StatusCreated)
	expect(t, p.do(t, ck, http.MethodPut, "/v1/booking/tickets", `{"count":2}`), http.StatusOK)

	// seats cannot be picked on the ticket step
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/seats/A1", ""), http.StatusConflict)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/advance", ""), http.StatusOK)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/seats/A1", ""), http.StatusOK)
	// A1 spelled another way is not a second seat
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/seats/A+1", ""), http.StatusBadRequest)

	// one seat short of the ticket count
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/proceed", ""), http.StatusConflict)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/seats/a2", ""), http.StatusOK)

	// a third seat is ignored
	rec := p.do(t, ck, http.MethodPost, "/v1/booking/seats/A3", "")
	expect(t, rec, http.StatusOK)
	var toggled struct {
		Toggle  booking.ToggleResult `json:"toggle"`
		Booking handler.WizardView   `json:"booking"`
	}
	decode(t, rec, &toggled)
	if toggled.Toggle.Added || len(toggled.Booking.SelectedSeats) != 2 || len(toggled.Booking.Seats) != 100 {
		t.Fatalf("toggle = %+v seats=%d", toggled.Toggle, len(toggled.Booking.Seats))
	}

	rec = p.do(t, ck, http.MethodPost, "/v1/booking/proceed", "")
	expect(t, rec, http.StatusOK)
	var proceeded struct {
		Quote model.Quote `json:"quote"`
	}
	decode(t, rec, &proceeded)
	if proceeded.Quote.Total.String() != "90000" || proceeded.Quote.Saved.String() != "10000" {
		t.Fatalf("quote = %+v", proceeded.Quote)
	}

	// customers must give an email
	expect(t, p.do(t, ck, http.MethodPost, "/v1/checkout", `{"name":"Ana"}`), http.StatusBadRequest)

	rec = p.do(t, ck, http.MethodPost, "/v1/checkout", `{"name":"Ana","email":"ana@example.com"}`)
	expect(t, rec, http.StatusAccepted)
	var started struct {
		OrderID    string `json:"order_id"`
		Token      string `json:"token"`
		OutcomeURL string `json:"outcome_url"`
	}
	decode(t, rec, &started)
	if started.Token != "snap-123" || started.OrderID != "ORD-1" {
		t.Fatalf("checkout = %+v", started)
	}
	if p.backend.intentURL[0] != apiclient.PathMoviePayment {
		t.Fatalf("intent posted to %s", p.backend.intentURL[0])
	}

	rec = p.do(t, ck, http.MethodPost, started.OutcomeURL, `{"outcome":"success"}`)
	expect(t, rec, http.StatusOK)
	var receipt payment.Receipt
	decode(t, rec, &receipt)
	if !receipt.Confirmed || receipt.Redirect != "/booking/success?order_id=ORD-1" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if receipt.Transaction.TotalPrice.String() != "90000" || receipt.Transaction.PaymentStatus != model.PaymentStatusSuccess {
		t.Fatalf("transaction = %+v", receipt.Transaction)
	}

	// paid drafts are discarded and the history shows the purchase
	expect(t, p.do(t, ck, http.MethodGet, "/v1/booking", ""), http.StatusNotFound)
	rec = p.do(t, ck, http.MethodGet, "/v1/transactions", "")
	expect(t, rec, http.StatusOK)
	var history struct {
		Items []model.Transaction `json:"items"`
	}
	decode(t, rec, &history)
	if len(history.Items) != 1 || history.Items[0].OrderID != "ORD-1" {
		t.Fatalf("history = %+v", history.Items)
	}
}

func TestFailedPaymentKeepsDraft(t *testing.T) {
	p := newPortal(t, model.RoleCashier)
	ck := p.cookie(t, model.RoleCashier)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking", `{"schedule_id":3}`), http.StatusCreated)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/advance", ""), http.StatusOK)
	expect(t, p.do(t, ck, http.MethodPost, "/v1/booking/seats/B5", ""), http.StatusOK)

	rec := p.do(t, ck, http.MethodPost, "/v1/checkout", `{"name":"Walk-in"}`)
	expect(t, rec, http.StatusAccepted)
	if p.backend.intentURL[0] != apiclient.PathCashierPayment {
		t.Fatalf("cashier intent posted to %s", p.backend.intentURL[0])
	}
	expect(t, p.do(t, ck, http.MethodPost, "/v1/payments/ORD-1/outcome", `{"outcome":"deny"}`), http.StatusPaymentRequired)
	expect(t, p.do(t, ck, http.MethodGet, "/v1/booking", ""), http.StatusOK)
	if p.backend.confirms != 0 {
		t.Fatal("failed payment was confirmed")
	}
}

func TestRoleGuards(t *testing.T) {
	p := newPortal(t, model.RoleOwner)

	// owners may see the dashboard but not book
	owner := p.cookie(t, model.RoleOwner)
	expect(t, p.do(t, owner, http.MethodGet, "/v1/dashboard", ""), http.StatusOK)
	expect(t, p.do(t, owner, http.MethodPost, "/v1/booking", `{"schedule_id":3}`), http.StatusForbidden)

	// no cookie: the backend is asked and issues an owner session
	rec := p.do(t, nil, http.MethodGet, "/v1/me", "")
	expect(t, rec, http.StatusOK)
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("no session cookie issued")
	}

	anon := newPortal(t, "")
	expect(t, anon.do(t, nil, http.MethodGet, "/v1/booking", ""), http.StatusUnauthorized)
	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req.Header.Set(echo.HeaderAccept, "text/html")
	rr := httptest.NewRecorder()
	anon.e.ServeHTTP(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != middleware.LoginPath {
		t.Fatalf("html redirect = %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestCatalogRoutes(t *testing.T) {
	p := newPortal(t, "")
	rec := p.do(t, nil, http.MethodGet, "/v1/schedules", "")
	expect(t, rec, http.StatusOK)
	var list struct {
		Items []model.Schedule `json:"items"`
	}
	decode(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].Movie.Title != "Dune" {
		t.Fatalf("items = %+v", list.Items)
	}
	expect(t, p.do(t, nil, http.MethodGet, "/v1/schedules/99", ""), http.StatusNotFound)
	expect(t, p.do(t, nil, http.MethodGet, "/v1/movies/1", ""), http.StatusNotFound)
	expect(t, p.do(t, nil, http.MethodGet, "/healthz", ""), http.StatusOK)
}
