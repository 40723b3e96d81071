// Package bsky is the small XRPC client skycli needs: login, feeds, threads,
// posting and reactions against a Bluesky PDS.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/types"
)

const (
	// DefaultTimeout bounds a single XRPC call
	DefaultTimeout = 30 * time.Second
	// maxErrorBody caps how much of an error response is read
	maxErrorBody = 64 << 10
)

// APIError is an XRPC error response
type APIError struct {
	Status  int
	NSID    string
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%d): %s", e.NSID, e.Name, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d)", e.NSID, e.Name, e.Status)
}

// tokenRejected reports whether the server refused the access token
func (e *APIError) tokenRejected() bool {
	return e.Status == http.StatusUnauthorized || e.Name == "ExpiredToken" || e.Name == "InvalidToken"
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the base HTTP client. Its transport is wrapped for authenticated calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.plain = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides time.Now, used to decide when tokens need refreshing
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client talks to one PDS on behalf of the shared session
type Client struct {
	service string
	session *session.Session
	logger  *slog.Logger
	now     func() time.Time

	plain  *http.Client
	authed *http.Client

	// refreshMu serializes token refreshes; refresh tokens are single use
	refreshMu sync.Mutex
}

// New creates a client. service is used until a session names its own PDS.
func New(service string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		service: strings.TrimRight(service, "/"),
		session: sess,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		plain:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.authed = &http.Client{
		Timeout: c.plain.Timeout,
		Transport: &oauth2.Transport{
			Source: &tokenSource{client: c},
			Base:   c.plain.Transport,
		},
	}
	return c
}

// serviceURL returns the PDS of the current session, or the configured default
func (c *Client) serviceURL() string {
	if s := c.session.Snapshot().Service; s != "" {
		return strings.TrimRight(s, "/")
	}
	return c.service
}

// query performs an authenticated XRPC GET
func (c *Client) query(ctx context.Context, nsid string, params url.Values, out any) error {
	return c.call(ctx, http.MethodGet, nsid, params, nil, out)
}

// procedure performs an authenticated XRPC POST
func (c *Client) procedure(ctx context.Context, nsid string, in, out any) error {
	return c.call(ctx, http.MethodPost, nsid, nil, in, out)
}

// call runs an authenticated request, refreshing the tokens once if the server rejects them
func (c *Client) call(ctx context.Context, method, nsid string, params url.Values, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}

	stale := c.session.Snapshot().AccessJWT
	err = c.do(ctx, c.authed, method, c.serviceURL(), nsid, params, body, "", out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.tokenRejected() {
		return err
	}

	c.logger.Debug("access token rejected, refreshing", "nsid", nsid)
	if err := c.refresh(ctx, stale); err != nil {
		return err
	}

	err = c.do(ctx, c.authed, method, c.serviceURL(), nsid, params, body, "", out)
	if errors.As(err, &apiErr) && apiErr.tokenRejected() {
		return fmt.Errorf("%s: %w", nsid, types.ErrSessionInvalid)
	}
	return err
}

// do executes one XRPC request. bearer, when set, overrides any transport authorization.
func (c *Client) do(ctx context.Context, hc *http.Client, method, service, nsid string, params url.Values, body []byte, bearer string, out any) error {
	u := service + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := c.now()
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("xrpc", "method", method, "nsid", nsid, "status", resp.StatusCode, "duration", c.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, NSID: nsid}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Name == "" {
			apiErr.Name = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", nsid, err)
	}
	return nil
}

func encodeBody(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}
