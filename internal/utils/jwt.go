// Package utils provides helpers for the portal session token.
package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// ErrInvalidSession is returned for tokens that fail verification.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is what the portal remembers about a browser between
// requests: who the upstream says the user is and the portal session id
// drafts are keyed by.
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	SID   string `json:"sid"`
	jwt.RegisteredClaims
}

// User rebuilds the identity carried by the claims.
func (c *SessionClaims) User() model.User {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return model.User{ID: id, Name: c.Name, Email: c.Email, Role: c.Role}
}

// SessionToken is a signed session cookie value along with its expiry.
type SessionToken struct {
	Token string
	SID   string
	Exp   time.Time
}

// NewSessionID returns a random session identifier.
func NewSessionID() string { return uuid.NewString() }

// NewSessionToken builds and signs an HS256 JWT for u.  An empty sid gets
// a fresh one.
func NewSessionToken(secret string, u model.User, sid string, ttl time.Duration) (SessionToken, error) {
	if sid == "" {
		sid = NewSessionID()
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		Name:  u.Name,
		Email: u.Email,
		Role:  model.NormalizeRole(u.Role),
		SID:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SID: sid, Exp: exp}, nil
}

// ParseSessionToken verifies raw and returns its claims.  Only HMAC
// signatures are accepted.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid || claims.SID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
