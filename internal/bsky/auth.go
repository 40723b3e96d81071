package bsky

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/types"
)

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
	Active     *bool  `json:"active,omitempty"`
}

// Authenticate logs in with an identifier (handle, DID or email) and an app
// password. It returns the new session without installing it.
func (c *Client) Authenticate(ctx context.Context, creds types.Credentials) (session.Data, error) {
	service := strings.TrimRight(creds.Service, "/")
	if service == "" {
		service = c.service
	}

	body, err := encodeBody(createSessionRequest{Identifier: creds.Identifier, Password: creds.Password})
	if err != nil {
		return session.Data{}, err
	}

	var out sessionResponse
	err = c.do(ctx, c.plain, http.MethodPost, service, "com.atproto.server.createSession", nil, body, "", &out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Name == "AuthenticationRequired") {
		return session.Data{}, types.ErrInvalidCredentials
	}
	if err != nil {
		return session.Data{}, fmt.Errorf("login failed: %w", err)
	}

	return session.Data{
		Service:    service,
		DID:        out.DID,
		Handle:     out.Handle,
		AccessJWT:  out.AccessJWT,
		RefreshJWT: out.RefreshJWT,
		Expiry:     jwtExpiry(out.AccessJWT),
	}, nil
}

// ResumeSession checks that the stored session is still accepted, refreshing
// tokens if needed, and returns the up to date session
func (c *Client) ResumeSession(ctx context.Context) (session.Data, error) {
	if !c.session.Valid() {
		return session.Data{}, types.ErrNotAuthenticated
	}

	var out sessionResponse
	if err := c.query(ctx, "com.atproto.server.getSession", nil, &out); err != nil {
		return session.Data{}, err
	}
	if out.Active != nil && !*out.Active {
		return session.Data{}, fmt.Errorf("account %s is not active: %w", out.Handle, types.ErrSessionInvalid)
	}
	return c.session.Snapshot(), nil
}
