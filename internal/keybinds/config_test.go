package keybinds

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig_JSONC(t *testing.T) {
	data := []byte(`
// user overrides
{
  "version": "1.0",
  "bindings": {
    "feed": {
      "o": "select", // open
      "l": "",
    },
  },
}`)

	config, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	keymap := NewDefaultKeymap()
	if err := ApplyConfig(keymap, config); err != nil {
		t.Fatalf("ApplyConfig() error = %v", err)
	}

	if got, _ := keymap.Lookup(ModeFeed, "o"); got != ActionSelect {
		t.Errorf("Lookup(feed, o) = %v, want %v", got, ActionSelect)
	}
	if keymap.HasBinding(ModeFeed, "l") {
		t.Error("empty action did not unbind l")
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{ bindings: `},
		{"unknown field", `{"keys": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Error("ParseConfig() error = nil, want error")
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	keymap, err := LoadOrDefault(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("LoadOrDefault(missing) error = %v", err)
	}
	if !keymap.HasBinding(ModeFeed, "j") {
		t.Error("LoadOrDefault(missing) did not return defaults")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(bad); err == nil {
		t.Error("LoadOrDefault(bad) error = nil, want error")
	}
}

func TestCreateExampleConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "keybinds.json")

	if err := CreateExampleConfig(path); err != nil {
		t.Fatalf("CreateExampleConfig() error = %v", err)
	}

	keymap, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}

	defaults := NewDefaultKeymap()
	for _, mode := range defaults.Modes() {
		for _, b := range defaults.Bindings(mode) {
			if got, _ := keymap.Lookup(mode, b.Key); got != b.Action {
				t.Errorf("Lookup(%s, %q) = %v, want %v", mode, b.Key, got, b.Action)
			}
		}
	}
}
