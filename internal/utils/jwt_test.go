package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	u := model.User{ID: 12, Name: "Kasir Satu", Email: "k@example.com", Role: "Kasir"}
	tok, err := NewSessionToken("secret", u, "", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if tok.SID == "" {
		t.Fatal("no session id issued")
	}
	claims, err := ParseSessionToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := claims.User()
	if got.ID != 12 || got.Role != model.RoleCashier || got.Name != "Kasir Satu" {
		t.Fatalf("user = %+v", got)
	}
	if claims.SID != tok.SID {
		t.Fatalf("sid = %q, want %q", claims.SID, tok.SID)
	}
}

func TestSessionTokenRejects(t *testing.T) {
	u := model.User{ID: 1, Role: model.RoleCustomer}
	tok, _ := NewSessionToken("secret", u, "sid-1", time.Minute)
	if _, err := ParseSessionToken("other", tok.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("wrong secret err = %v", err)
	}
	expired, _ := NewSessionToken("secret", u, "sid-1", -time.Minute)
	if _, err := ParseSessionToken("secret", expired.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expired err = %v", err)
	}
	if _, err := ParseSessionToken("secret", "garbage"); err == nil {
		t.Fatal("garbage accepted")
	}
}
