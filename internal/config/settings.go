package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/skycli/internal/feed"
)

// DefaultService is the PDS used when none is configured
const DefaultService = "https://bsky.social"

// Intervals are the polling periods of feed subscriptions
type Intervals struct {
	// Feed is used by a single open feed
	Feed time.Duration `yaml:"feed"`
	// FeedList is used for the previews in the feed list, which poll more slowly
	FeedList time.Duration `yaml:"feed_list"`
}

// LogSettings configures the log file
type LogSettings struct {
	Level string `yaml:"level"`
}

// Settings is the validated content of config.yaml
type Settings struct {
	Service              string            `yaml:"service"`
	Intervals            Intervals         `yaml:"intervals"`
	SequenceTimeout      time.Duration     `yaml:"sequence_timeout"`
	MaxConcurrentFetches int               `yaml:"max_concurrent_fetches"`
	Preferences          feed.Preferences  `yaml:"preferences"`
	Filters              map[string]string `yaml:"filters,omitempty"`
	Log                  LogSettings       `yaml:"log"`
}

// Default returns the settings used when config.yaml leaves a value out
func Default() Settings {
	return Settings{
		Service: DefaultService,
		Intervals: Intervals{
			Feed:     15 * time.Second,
			FeedList: 60 * time.Second,
		},
		SequenceTimeout:      time.Second,
		MaxConcurrentFetches: 4,
		Log:                  LogSettings{Level: "info"},
	}
}

// Parse decodes YAML settings over the defaults and validates the result
func Parse(data []byte) (Settings, error) {
	s := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("invalid config.yaml: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads and validates a settings file
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return Parse(data)
}

// Validate checks every field and reports all problems at once
func (s Settings) Validate() error {
	var problems []string

	u, err := url.Parse(s.Service)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("service: %q is not an http(s) URL", s.Service))
	}
	if s.Intervals.Feed < time.Second {
		problems = append(problems, "intervals.feed: must be at least 1s")
	}
	if s.Intervals.FeedList < time.Second {
		problems = append(problems, "intervals.feed_list: must be at least 1s")
	}
	if s.SequenceTimeout <= 0 {
		problems = append(problems, "sequence_timeout: must be positive")
	}
	if s.MaxConcurrentFetches < 1 || s.MaxConcurrentFetches > 32 {
		problems = append(problems, "max_concurrent_fetches: must be between 1 and 32")
	}
	if s.Preferences.HideRepliesByLikeCount < 0 {
		problems = append(problems, "preferences.hide_replies_by_like_count: must not be negative")
	}
	for id, expr := range s.Filters {
		if !feed.IsValidJMESPath(expr) {
			problems = append(problems, fmt.Sprintf("filters[%s]: invalid JMESPath expression %q", id, expr))
		}
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		problems = append(problems, "log.level: "+err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config.yaml:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Filter returns the JMESPath expression configured for a feed, or ""
func (s Settings) Filter(id string) string {
	return s.Filters[id]
}

// ParseLevel converts a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unknown level %q", level)
	}
	return l, nil
}

// WriteDefault writes a commented default config.yaml
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	header := []byte("# skycli settings. Durations use Go syntax (15s, 1m).\n")
	return os.WriteFile(path, append(header, data...), FilePermissions)
}
