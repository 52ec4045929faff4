package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error describes a non-2xx answer from the backend.  Message carries the
// server's own "message" (or "error") text when one was sent so callers can
// show it to the user verbatim.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s %s: %d", e.Method, e.Path, e.StatusCode)
}

// StatusOf returns the upstream status code carried by err, or 0 when err is
// not an upstream error (network failure, timeout, decode error).
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the session.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == 419 // 419: expired CSRF/session
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// MessageOf returns a user-facing message for err: the server's own message
// when available, otherwise fallback.
func MessageOf(err error, fallback string) string {
	var ue *Error
	if errors.As(err, &ue) && strings.TrimSpace(ue.Message) != "" {
		return ue.Message
	}
	return fallback
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, StatusCode: status}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	}
	return e
}
