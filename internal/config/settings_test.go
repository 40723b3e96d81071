package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(empty) error = %v", err)
	}
	if s.Service != DefaultService {
		t.Errorf("Service = %q, want %q", s.Service, DefaultService)
	}
	if s.Intervals.Feed != 15*time.Second || s.Intervals.FeedList != time.Minute {
		t.Errorf("Intervals = %+v, want 15s/1m", s.Intervals)
	}
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
service: https://pds.example.com
intervals:
  feed: 30s
sequence_timeout: 750ms
preferences:
  hide_reposts: true
filters:
  timeline: "likeCount > ` + "`5`" + `"
log:
  level: debug
`)

	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.Service != "https://pds.example.com" {
		t.Errorf("Service = %q", s.Service)
	}
	if s.Intervals.Feed != 30*time.Second {
		t.Errorf("Intervals.Feed = %v, want 30s", s.Intervals.Feed)
	}
	if s.Intervals.FeedList != time.Minute {
		t.Errorf("Intervals.FeedList = %v, want default 1m", s.Intervals.FeedList)
	}
	if s.SequenceTimeout != 750*time.Millisecond {
		t.Errorf("SequenceTimeout = %v, want 750ms", s.SequenceTimeout)
	}
	if !s.Preferences.HideReposts {
		t.Error("Preferences.HideReposts = false, want true")
	}
	if s.Filter("timeline") == "" {
		t.Error("Filter(timeline) is empty")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "service: [", "invalid config.yaml"},
		{"unknown field", "servce: https://bsky.social", "invalid config.yaml"},
		{"bad service", "service: ftp://example.com", "service:"},
		{"interval too short", "intervals:\n  feed: 10ms", "intervals.feed"},
		{"bad duration", "sequence_timeout: soon", "invalid config.yaml"},
		{"zero timeout", "sequence_timeout: 0s", "sequence_timeout"},
		{"fetch bound", "max_concurrent_fetches: 0", "max_concurrent_fetches"},
		{"bad filter", "filters:\n  timeline: \"[?\"", "filters[timeline]"},
		{"bad level", "log:\n  level: loud", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestInitialize_CustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if ConfigDir != filepath.Join(dir, "nested") {
		t.Errorf("ConfigDir = %q", ConfigDir)
	}
	if KeybindsFile != filepath.Join(ConfigDir, "keybinds.json") {
		t.Errorf("KeybindsFile = %q", KeybindsFile)
	}
	if _, err := os.Stat(SettingsFile); err != nil {
		t.Fatalf("settings file not created: %v", err)
	}

	s, err := Load(SettingsFile)
	if err != nil {
		t.Fatalf("Load(default file) error = %v", err)
	}
	if !reflect.DeepEqual(s, Default()) {
		t.Errorf("Load(default file) = %+v, want defaults", s)
	}
}
