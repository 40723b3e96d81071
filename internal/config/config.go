package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// PrivateFilePermissions is used for files holding tokens
	PrivateFilePermissions = 0600
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.skycli)
	ConfigDir string

	// SettingsFile is the YAML settings file
	SettingsFile string

	// KeybindsFile is the JSONC keybinding overrides file
	KeybindsFile string

	// SessionFile holds the persisted login tokens
	SessionFile string

	// DatabasePath is the SQLite database for pinned feeds, drafts and sent posts
	DatabasePath string

	// LogFile receives the application log; the terminal belongs to the UI
	LogFile string
)

// Initialize sets up the configuration directory and file paths.
// An empty settingsPath uses ~/.skycli/config.yaml; otherwise every other
// file lives next to the given settings file.
func Initialize(settingsPath string) error {
	if settingsPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		ConfigDir = filepath.Join(homeDir, ".skycli")
		SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	} else {
		abs, err := filepath.Abs(settingsPath)
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
		ConfigDir = filepath.Dir(abs)
		SettingsFile = abs
	}

	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	SessionFile = filepath.Join(ConfigDir, ".session.json")
	DatabasePath = filepath.Join(ConfigDir, "skycli.db")
	LogFile = filepath.Join(ConfigDir, "skycli.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default settings file if it doesn't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		if err := WriteDefault(SettingsFile); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}
