package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api", 0); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestListSchedulesBothShapes(t *testing.T) {
	bodies := []string{
		`[{"id":1,"price":50000,"studio":{"rows":5,"columns":20}}]`,
		`{"data":[{"id":1,"price":"50000.00","studio":{"rows":5,"columns":20}}]}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/schedules" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
		list, err := c.ListSchedules(context.Background())
		if err != nil {
			t.Fatalf("ListSchedules: %v", err)
		}
		if len(list) != 1 || list[0].ID != 1 {
			t.Fatalf("list = %+v", list)
		}
		if !list[0].Price.Equal(decimal.NewFromInt(50000)) {
			t.Fatalf("price = %s", list[0].Price)
		}
	}
}

func TestFindScheduleMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})
	if _, err := c.FindSchedule(context.Background(), 2); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestWithCookiesForwardsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("laravel_session")
		if err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":3,"name":"Rina","email":"r@x.id","role":"Kasir"}}`))
	})

	_, err := c.CurrentUser(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("anonymous err = %v, want unauthorized", err)
	}
	if MessageOf(err, "x") != "Unauthenticated." {
		t.Fatalf("message = %q", MessageOf(err, "x"))
	}

	sess := c.WithCookies([]*http.Cookie{{Name: "laravel_session", Value: "abc"}})
	u, err := sess.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if u.ID != 3 || u.Role != model.RoleCashier {
		t.Fatalf("user = %+v", u)
	}
}

func TestCheckDiscount(t *testing.T) {
	t.Run("wrapped with totals", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req model.DiscountCheckRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.ScheduleID != 9 || !req.Subtotal.Equal(decimal.NewFromInt(100000)) {
				t.Errorf("request = %+v", req)
			}
			_, _ = w.Write([]byte(`{"data":{"discount":{"id":4,"name":"Weekday","type":"percentage","amount":10},"discount_amount":10000,"final_total":90000}}`))
		})
		d, err := c.CheckDiscount(context.Background(), model.DiscountCheckRequest{ScheduleID: 9, Subtotal: decimal.NewFromInt(100000)})
		if err != nil {
			t.Fatalf("CheckDiscount: %v", err)
		}
		if d == nil || d.ID != 4 || !d.FinalTotal.Equal(decimal.NewFromInt(90000)) || !d.DiscountAmount.Equal(decimal.NewFromInt(10000)) {
			t.Fatalf("discount = %+v", d)
		}
	})
	t.Run("none", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"discount":null}}`))
		})
		d, err := c.CheckDiscount(context.Background(), model.DiscountCheckRequest{ScheduleID: 1})
		if err != nil || d != nil {
			t.Fatalf("discount = %+v, err = %v", d, err)
		}
	})
}

func TestCreatePaymentIntentRoutesByActor(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":{"snap_token":"tok-1","order_id":1234}}`))
	})
	intent, err := c.CreatePaymentIntent(context.Background(), true, model.PaymentIntentRequest{ScheduleID: 1})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if gotPath != PathCashierPayment {
		t.Fatalf("path = %s", gotPath)
	}
	if intent.Token != "tok-1" || intent.OrderID != "1234" {
		t.Fatalf("intent = %+v", intent)
	}
	if _, err := c.CreatePaymentIntent(context.Background(), false, model.PaymentIntentRequest{}); err != nil {
		t.Fatalf("customer intent: %v", err)
	}
	if gotPath != PathMoviePayment {
		t.Fatalf("path = %s", gotPath)
	}
}

func TestCreatePaymentIntentErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Kursi sudah dipesan"}`))
	})
	_, err := c.CreatePaymentIntent(context.Background(), false, model.PaymentIntentRequest{})
	if StatusOf(err) != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", StatusOf(err))
	}
	if MessageOf(err, "generic") != "Kursi sudah dipesan" {
		t.Fatalf("message = %q", MessageOf(err, "generic"))
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c, _ := New(srv.URL, 50*time.Millisecond)
	_, err := c.ListSchedules(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if StatusOf(err) != 0 {
		t.Fatalf("timeout should not carry a status, got %d", StatusOf(err))
	}
}

func TestEndpointLabel(t *testing.T) {
	if got := endpointLabel("/api/movies/42"); got != "/api/movies/:id" {
		t.Fatalf("label = %s", got)
	}
	if got := endpointLabel("/api/kasir/payment"); got != "/api/kasir/payment" {
		t.Fatalf("label = %s", got)
	}
}
