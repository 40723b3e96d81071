package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/skycli/internal/config"
	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/version"
)

// setupDir initializes the config directory in a temp dir, optionally
// writing config.yaml first
func setupDir(t *testing.T, settings string) (config.Settings, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if settings != "" {
		if err := os.WriteFile(path, []byte(settings), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return Setup(Options{ConfigPath: path})
}

func writeKeybinds(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(config.KeybindsFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		wantErr  bool
	}{
		{name: "defaults are written", settings: ""},
		{name: "custom interval", settings: "intervals:\n  feed: 30s\n"},
		{name: "malformed yaml", settings: "service: [\n", wantErr: true},
		{name: "invalid level", settings: "log:\n  level: loud\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := setupDir(t, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if _, err := os.Stat(config.SettingsFile); err != nil {
				t.Errorf("settings file missing: %v", err)
			}
			if settings.Service == "" {
				t.Error("service should default")
			}
		})
	}

	t.Run("custom interval is loaded", func(t *testing.T) {
		settings, err := setupDir(t, "intervals:\n  feed: 30s\n")
		if err != nil {
			t.Fatal(err)
		}
		if settings.Intervals.Feed != 30*time.Second {
			t.Errorf("Intervals.Feed = %v", settings.Intervals.Feed)
		}
	})
}

func TestLoadKeymap(t *testing.T) {
	tests := []struct {
		name     string
		keybinds string
		wantErr  string
	}{
		{name: "no file uses defaults"},
		{
			name:     "override with comments",
			keybinds: "// mine\n{\"version\": \"1.0\", \"bindings\": {\"feed\": {\"o\": \"select\",}}}",
		},
		{
			name:     "reserved key rebound",
			keybinds: `{"version": "1.0", "bindings": {"global": {"ctrl+c": "back"}}}`,
			wantErr:  "reserved key",
		},
		{
			name:     "not json",
			keybinds: `bindings = {}`,
			wantErr:  "keybinds.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := setupDir(t, ""); err != nil {
				t.Fatal(err)
			}
			if tt.keybinds != "" {
				writeKeybinds(t, tt.keybinds)
			}

			keymap, err := LoadKeymap(config.KeybindsFile)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadKeymap() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadKeymap() error = %v", err)
			}
			if keymap == nil {
				t.Fatal("keymap is nil")
			}
		})
	}
}

func TestExportKeybinds(t *testing.T) {
	if _, err := setupDir(t, ""); err != nil {
		t.Fatal(err)
	}
	writeKeybinds(t, `{"version": "1.0", "bindings": {"feed": {"o": "select"}}}`)

	var out bytes.Buffer
	if err := ExportKeybinds(&out, ""); err != nil {
		t.Fatalf("ExportKeybinds() error = %v", err)
	}
	for _, want := range []string{`"ctrl+c": "quit"`, `"o": "select"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("export missing %s", want)
		}
	}

	path := filepath.Join(t.TempDir(), "out.json")
	out.Reset()
	if err := ExportKeybinds(&out, path); err != nil {
		t.Fatalf("ExportKeybinds(file) error = %v", err)
	}
	if _, err := LoadKeymap(path); err != nil {
		t.Errorf("exported file does not load back: %v", err)
	}
}

func TestCheckKeybinds(t *testing.T) {
	tests := []struct {
		name     string
		keybinds string
		wantOut  string
		wantErr  bool
	}{
		{name: "missing file", wantOut: "using the default keybindings"},
		{name: "valid", keybinds: `{"version": "1.0", "bindings": {"feed": {"o": "select"}}}`, wantOut: "No issues found"},
		{name: "unknown action", keybinds: `{"version": "1.0", "bindings": {"feed": {"o": "explode"}}}`, wantOut: "Errors (1)", wantErr: true},
		{name: "unknown mode", keybinds: `{"version": "1.0", "bindings": {"nowhere": {"o": "select"}}}`, wantOut: "unknown mode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := setupDir(t, ""); err != nil {
				t.Fatal(err)
			}
			if tt.keybinds != "" {
				writeKeybinds(t, tt.keybinds)
			}

			var out bytes.Buffer
			err := CheckKeybinds(&out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckKeybinds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestInitKeybinds(t *testing.T) {
	if _, err := setupDir(t, ""); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := InitKeybinds(&out); err != nil {
		t.Fatalf("InitKeybinds() error = %v", err)
	}
	if _, err := LoadKeymap(config.KeybindsFile); err != nil {
		t.Errorf("written defaults do not load: %v", err)
	}
	if err := InitKeybinds(&out); err == nil {
		t.Error("second InitKeybinds() should refuse to overwrite")
	}
}

func TestLogout(t *testing.T) {
	if _, err := setupDir(t, ""); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Logout(&out); err != nil {
		t.Fatalf("Logout() without session error = %v", err)
	}
	if !strings.Contains(out.String(), "no stored session") {
		t.Errorf("output = %q", out.String())
	}

	sess := session.New(config.SessionFile)
	if err := sess.Establish(session.Data{DID: "did:plc:me", Handle: "me.test", AccessJWT: "a", RefreshJWT: "r"}); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := Logout(&out); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !strings.Contains(out.String(), "logged out me.test") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(config.SessionFile); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
}

func TestOpenLogger(t *testing.T) {
	settings, err := setupDir(t, "")
	if err != nil {
		t.Fatal(err)
	}

	logger, closeLog, err := openLogger(settings, Options{Dev: true})
	if err != nil {
		t.Fatalf("openLogger() error = %v", err)
	}
	logger.Debug("hello from the test")
	closeLog()

	data, err := os.ReadFile(config.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("debug line missing from log: %q", data)
	}

	if _, _, err := openLogger(settings, Options{LogLevel: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
}

func TestCheckUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v0.3.0","html_url":"https://example.test/releases/v0.3.0"}`))
	}))
	defer srv.Close()
	checker := &version.Checker{URL: srv.URL, Client: srv.Client()}

	tests := []struct {
		current string
		want    string
	}{
		{current: "0.1.0", want: "skycli 0.3.0 is available: https://example.test/releases/v0.3.0"},
		{current: "0.3.0", want: "up to date"},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			var out bytes.Buffer
			if err := CheckUpdate(context.Background(), &out, checker, tt.current); err != nil {
				t.Fatalf("CheckUpdate() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}
