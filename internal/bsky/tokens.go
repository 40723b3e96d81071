package bsky

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/studiowebux/skycli/internal/types"
)

// expiryMargin refreshes tokens slightly before they expire
const expiryMargin = 30 * time.Second

// tokenSource hands the session's access token to oauth2.Transport,
// refreshing it first when it is about to expire
type tokenSource struct {
	client *Client
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	c := ts.client
	d := c.session.Snapshot()
	if !d.Valid() {
		return nil, types.ErrNotAuthenticated
	}

	expiry := d.Expiry
	if expiry.IsZero() {
		expiry = jwtExpiry(d.AccessJWT)
	}

	if !expiry.IsZero() && c.now().Add(expiryMargin).After(expiry) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		if err := c.refresh(ctx, d.AccessJWT); err != nil {
			return nil, err
		}
		d = c.session.Snapshot()
		expiry = d.Expiry
	}

	return &oauth2.Token{
		AccessToken: d.AccessJWT,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}

type refreshResponse struct {
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

// refresh exchanges the refresh token for new tokens unless another caller
// already replaced the stale access token
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	d := c.session.Snapshot()
	if !d.Valid() {
		return types.ErrSessionInvalid
	}
	if d.AccessJWT != stale {
		return nil
	}

	var out refreshResponse
	err := c.do(ctx, c.plain, http.MethodPost, c.serviceURL(), "com.atproto.server.refreshSession", nil, nil, d.RefreshJWT, &out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.tokenRejected()) {
		c.logger.Warn("session refresh rejected", "error", apiErr)
		return fmt.Errorf("refresh session: %w", types.ErrSessionInvalid)
	}
	if err != nil {
		return err
	}

	if err := c.session.UpdateTokens(out.AccessJWT, out.RefreshJWT, jwtExpiry(out.AccessJWT)); err != nil {
		c.logger.Warn("failed to persist refreshed session", "error", err)
	}
	c.logger.Info("session refreshed", "handle", out.Handle)
	return nil
}

// jwtExpiry reads the exp claim of a JWT without verifying it. It returns
// the zero time when the token has no readable exp claim.
func jwtExpiry(token string) time.Time {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if json.Unmarshal(payload, &claims) != nil || claims.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(claims.Exp, 0)
}
