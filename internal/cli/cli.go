// Package cli wires the skycli collaborators together and implements the
// non-interactive subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/app"
	"github.com/studiowebux/skycli/internal/bsky"
	"github.com/studiowebux/skycli/internal/component"
	"github.com/studiowebux/skycli/internal/config"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/store"
	"github.com/studiowebux/skycli/internal/tui"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/version"
	"github.com/studiowebux/skycli/internal/watcher"
)

// resumeTimeout bounds the session check made before the UI starts
const resumeTimeout = 5 * time.Second

// Options contains the global flags
type Options struct {
	ConfigPath string // config.yaml location; other files live next to it
	LogLevel   string // overrides log.level from config.yaml
	Dev        bool   // debug logging with source locations
}

// Setup initializes the configuration directory and loads the settings.
// A malformed config.yaml is an error.
func Setup(opts Options) (config.Settings, error) {
	if err := config.Initialize(opts.ConfigPath); err != nil {
		return config.Settings{}, fmt.Errorf("failed to initialize config: %w", err)
	}
	settings, err := config.Load(config.SettingsFile)
	if err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// Run starts the interactive client and blocks until it exits
func Run(ctx context.Context, opts Options) error {
	settings, err := Setup(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(settings, opts)
	if err != nil {
		return err
	}
	defer closeLog()

	keymap, err := LoadKeymap(config.KeybindsFile)
	if err != nil {
		return err
	}

	sess := session.New(config.SessionFile)
	if err := sess.Load(); err != nil {
		// an unreadable session only means logging in again
		logger.Warn("ignoring stored session", "error", err)
	}

	var local component.Store
	db, err := store.Open(config.DatabasePath)
	if err != nil {
		logger.Error("local storage unavailable, pins and drafts are disabled", "path", config.DatabasePath, "error", err)
	} else {
		defer db.Close()
		local = db
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := bsky.New(settings.Service, sess, bsky.WithLogger(logger))
	resume(ctx, client, sess, logger)

	queue := action.NewQueue()
	defer queue.Close()

	w := watcher.New(ctx, client, queue,
		watcher.WithLogger(logger),
		watcher.WithMaxConcurrentFetches(settings.MaxConcurrentFetches))
	defer w.Close()

	env := component.Env{
		Session:   sess,
		Settings:  settings,
		Network:   client,
		Store:     local,
		Clipboard: clipboard.WriteAll,
		Logger:    logger,
	}
	shell := app.New(ctx, env, keymap, w, queue, app.WithLogger(logger))
	defer shell.Close()

	logger.Info("starting", "service", settings.Service, "logged_in", sess.Valid())
	shell.Start()

	if err := tui.Run(ctx, shell, queue, settings.SequenceTimeout); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	logger.Info("exiting")
	return nil
}

// resume checks a stored session before the first screen is chosen. A
// rejected session is dropped so the login screen shows; network failures
// keep it, the watcher will report them.
func resume(ctx context.Context, client *bsky.Client, sess *session.Session, logger *slog.Logger) {
	if !sess.Valid() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, resumeTimeout)
	defer cancel()

	data, err := client.ResumeSession(ctx)
	switch {
	case errors.Is(err, types.ErrSessionInvalid):
		logger.Warn("stored session was rejected", "error", err)
		sess.Invalidate()
	case err != nil:
		logger.Warn("could not verify stored session", "error", err)
	default:
		logger.Debug("resumed session", "handle", data.Handle)
	}
}

// openLogger creates the file logger. The terminal belongs to the UI, so
// logs go to config.LogFile.
func openLogger(settings config.Settings, opts Options) (*slog.Logger, func(), error) {
	levelName := settings.Log.Level
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	if opts.Dev {
		level = slog.LevelDebug
	}

	f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level, AddSource: opts.Dev})
	return slog.New(handler), func() { f.Close() }, nil
}

// LoadKeymap loads keybinds.json over the defaults. Bindings that make the
// keymap unusable are an error; other findings are only warnings.
func LoadKeymap(path string) (*keybinds.Keymap, error) {
	keymap, err := keybinds.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if result := keybinds.NewValidator().ValidateKeymap(keymap); result.HasErrors() {
		return nil, fmt.Errorf("invalid keybindings in %s:\n%s", path, result)
	}
	return keymap, nil
}

// ExportKeybinds writes the effective keymap as keybinds.json. An empty
// path writes to out.
func ExportKeybinds(out io.Writer, path string) error {
	keymap, err := LoadKeymap(config.KeybindsFile)
	if err != nil {
		return err
	}
	if path != "" {
		if err := keybinds.SaveConfig(keybinds.Export(keymap), path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(out, "keybindings written to %s\n", path)
		return nil
	}

	data, err := keybinds.MarshalConfig(keybinds.Export(keymap))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// CheckKeybinds validates keybinds.json and reports every finding
func CheckKeybinds(out io.Writer) error {
	cfg, err := keybinds.LoadConfig(config.KeybindsFile)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "%s not found, using the default keybindings\n", config.KeybindsFile)
		return nil
	}
	if err != nil {
		return err
	}

	result := keybinds.NewValidator().ValidateConfig(cfg)
	fmt.Fprintln(out, result.String())
	if result.HasErrors() {
		return fmt.Errorf("%s has %d error(s)", config.KeybindsFile, len(result.Errors))
	}
	return nil
}

// Logout removes the stored session
func Logout(out io.Writer) error {
	sess := session.New(config.SessionFile)
	if err := sess.Load(); err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	handle := sess.Snapshot().Handle
	if err := sess.Clear(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	if handle == "" {
		fmt.Fprintln(out, "no stored session")
		return nil
	}
	fmt.Fprintf(out, "logged out %s\n", handle)
	return nil
}

// InitKeybinds writes the default keymap to keybinds.json for editing.
// An existing file is left alone.
func InitKeybinds(out io.Writer) error {
	if _, err := os.Stat(config.KeybindsFile); err == nil {
		return fmt.Errorf("%s already exists", config.KeybindsFile)
	}
	if err := keybinds.CreateExampleConfig(config.KeybindsFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.KeybindsFile, err)
	}
	fmt.Fprintf(out, "default keybindings written to %s\n", config.KeybindsFile)
	return nil
}

// CheckUpdate reports whether a newer release than current is published
func CheckUpdate(ctx context.Context, out io.Writer, checker *version.Checker, current string) error {
	rel, err := checker.Latest(ctx, current)
	if err != nil {
		return err
	}
	if !rel.Newer {
		fmt.Fprintln(out, "up to date")
		return nil
	}
	fmt.Fprintf(out, "skycli %s is available: %s\n", rel.Version, rel.URL)
	return nil
}
