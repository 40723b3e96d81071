// Package session holds the authenticated session shared by the whole
// process and persists its tokens between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Data is a snapshot of the session
type Data struct {
	Service    string    `json:"service"`
	DID        string    `json:"did"`
	Handle     string    `json:"handle"`
	AccessJWT  string    `json:"accessJwt"`
	RefreshJWT string    `json:"refreshJwt"`
	Expiry     time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the snapshot carries tokens
func (d Data) Valid() bool {
	return d.DID != "" && d.AccessJWT != "" && d.RefreshJWT != ""
}

// Session is the single session handle of the process. Everyone reads it;
// only the login screen establishes or clears it. Token refresh runs on
// network goroutines, so fields are guarded by a RWMutex.
type Session struct {
	mu   sync.RWMutex
	data Data
	path string
}

// New creates an empty session persisted at path. An empty path disables persistence.
func New(path string) *Session {
	return &Session{path: path}
}

// Load reads persisted tokens. A missing file leaves the session empty.
func (s *Session) Load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	return nil
}

// Save writes the current tokens to disk
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the session
func (s *Session) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Valid reports whether the session carries tokens
func (s *Session) Valid() bool {
	return s.Snapshot().Valid()
}

// Establish replaces the session after a successful login and persists it
func (s *Session) Establish(d Data) error {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	return s.Save()
}

// UpdateTokens stores refreshed tokens and persists them
func (s *Session) UpdateTokens(access, refresh string, expiry time.Time) error {
	s.mu.Lock()
	s.data.AccessJWT = access
	s.data.RefreshJWT = refresh
	s.data.Expiry = expiry
	s.mu.Unlock()
	return s.Save()
}

// Invalidate drops the tokens in memory, keeping service and handle for the login form
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{Service: s.data.Service, Handle: s.data.Handle}
}

// Clear invalidates the session and removes the persisted tokens
func (s *Session) Clear() error {
	s.Invalidate()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
