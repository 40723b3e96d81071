package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testData() Data {
	return Data{
		Service:    "https://bsky.social",
		DID:        "did:plc:alice",
		Handle:     "alice.test",
		AccessJWT:  "access",
		RefreshJWT: "refresh",
		Expiry:     time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSession_EstablishPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session.json")

	s := New(path)
	if err := s.Establish(testData()); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %v, want 0600", perm)
	}

	loaded := New(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, want := loaded.Snapshot(), testData()
	if got.DID != want.DID || got.AccessJWT != want.AccessJWT || got.RefreshJWT != want.RefreshJWT || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if !loaded.Valid() {
		t.Error("Valid() = false, want true")
	}
}

func TestSession_LoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	s := New(filepath.Join(dir, "missing.json"))
	if err := s.Load(); err != nil {
		t.Errorf("Load(missing) error = %v", err)
	}
	if s.Valid() {
		t.Error("Valid() = true for empty session")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := New(bad).Load(); err == nil {
		t.Error("Load(corrupt) error = nil, want error")
	}
}

func TestSession_ClearKeepsHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session.json")
	s := New(path)
	if err := s.Establish(testData()); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.Valid() {
		t.Error("Valid() = true after Clear")
	}
	if got := s.Snapshot(); got.Handle != "alice.test" || got.Service == "" {
		t.Errorf("Snapshot() = %+v, want handle and service kept", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestSession_ConcurrentRefresh(t *testing.T) {
	s := New("")
	_ = s.Establish(testData())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.UpdateTokens("a2", "r2", time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if got := s.Snapshot(); got.AccessJWT != "a2" || got.RefreshJWT != "r2" {
		t.Errorf("tokens = %q/%q, want a2/r2", got.AccessJWT, got.RefreshJWT)
	}
}
