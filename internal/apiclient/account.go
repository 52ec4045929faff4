package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// CurrentUser returns the account bound to the forwarded session cookies.
// A 401 answer is returned as an *Error so callers can tell an anonymous
// visitor (IsUnauthorized) from an unreachable backend.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/user", nil)
	if err != nil {
		return model.User{}, err
	}
	// some deployments wrap the account as {"user": {...}}
	if raw := env.Field("user"); raw != nil {
		env = Envelope{Data: raw}
	}
	var u model.User
	if err := env.Decode(&u); err != nil {
		return model.User{}, fmt.Errorf("current user: %w", err)
	}
	u.Role = model.NormalizeRole(u.Role)
	return u, nil
}

// ListTransactions returns the backend's history for the current account.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/transactions", nil)
	if err != nil {
		return nil, err
	}
	if env.IsNull() {
		return []model.Transaction{}, nil
	}
	var out []model.Transaction
	if err := env.Decode(&out); err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}
	return out, nil
}
