// Package apiclient talks to the ticketing REST backend.  It forwards the
// browser's session cookies, enforces a fixed request timeout and decodes
// every answer through a single Envelope so no caller sniffs response shapes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticket-portal/internal/metrics"
)

// DefaultTimeout bounds every upstream request when none is configured.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Client is a backend client.  The zero value is not usable; build one with
// New.  A Client is safe for concurrent use; WithCookies derives a
// per-session copy that shares the underlying transport.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// New returns a client for the backend rooted at baseURL.  timeout <= 0
// selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    u,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

// WithCookies returns a copy of the client whose requests carry the given
// cookies, the server-side equivalent of a browser's withCredentials.  A
// fresh jar is used so cookies set by the backend during one session never
// leak into another.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	jar, _ := cookiejar.New(nil) // cookiejar.New never fails with nil options
	if len(cookies) > 0 {
		jar.SetCookies(c.base, cookies)
	}
	cp := *c
	cp.http = &http.Client{
		Transport: c.http.Transport,
		Timeout:   c.timeout,
		Jar:       jar,
	}
	return &cp
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// do performs one request and returns the normalized envelope for 2xx
// answers or an *Error otherwise.
func (c *Client) do(ctx context.Context, method, path string, in any) (Envelope, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return Envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(method, endpointLabel(path), 0, time.Since(start))
		return Envelope{}, fmt.Errorf("upstream %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(method, endpointLabel(path), resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Envelope{}, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := newError(method, path, resp.StatusCode, raw)
		slog.Debug("upstream error", "method", method, "path", path, "status", resp.StatusCode, "message", uerr.Message)
		return Envelope{}, uerr
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Envelope{}, nil
	}
	return parseEnvelope(raw)
}

// endpointLabel collapses numeric path segments so metrics stay low
// cardinality: /api/movies/42 -> /api/movies/:id.
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
