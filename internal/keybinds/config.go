package keybinds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// ConfigVersion is written into exported keybinds.json files
const ConfigVersion = "1.0"

// Config represents the user's keybinding configuration.
//
// Bindings maps mode -> chord -> action. An empty action removes the
// default binding for that chord.
type Config struct {
	Version  string                       `json:"version"`
	Bindings map[string]map[string]string `json:"bindings,omitempty"`
}

// ParseConfig decodes keybinds.json content. Comments and trailing commas are allowed.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}
	return &config, nil
}

// LoadConfig loads keybinding configuration from a JSONC file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// MarshalConfig encodes a configuration as commented keybinds.json content
func MarshalConfig(config *Config) ([]byte, error) {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}

	header := []byte("// skycli keybindings: mode -> key -> action.\n" +
		"// Sequences are space separated (\"g g\"). An empty action unbinds the key.\n")

	return append(header, append(data, '\n')...), nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := MarshalConfig(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyConfig applies user configuration to a keymap.
// User bindings override default bindings
func ApplyConfig(keymap *Keymap, config *Config) error {
	for modeName, bindings := range config.Bindings {
		mode := Mode(modeName)
		for chord, actionStr := range bindings {
			if NormalizeChord(chord) == "" {
				return fmt.Errorf("empty key in mode '%s'", mode)
			}
			if actionStr == "" {
				keymap.Unregister(mode, chord)
				continue
			}
			keymap.Register(mode, chord, Action(actionStr))
		}
	}
	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns the default keymap
func LoadOrDefault(configPath string) (*Keymap, error) {
	keymap := NewDefaultKeymap()

	if _, err := os.Stat(configPath); err == nil {
		config, err := LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
		}

		if err := ApplyConfig(keymap, config); err != nil {
			return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
		}
	}
	// If config doesn't exist, that's fine - use defaults

	return keymap, nil
}

// Export converts a keymap to its config representation
func Export(keymap *Keymap) *Config {
	config := &Config{
		Version:  ConfigVersion,
		Bindings: make(map[string]map[string]string),
	}
	for _, mode := range keymap.Modes() {
		section := make(map[string]string)
		for _, b := range keymap.Bindings(mode) {
			section[b.Key] = string(b.Action)
		}
		config.Bindings[string(mode)] = section
	}
	return config
}

// CreateExampleConfig writes the full default keymap so users can edit it in place
func CreateExampleConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return SaveConfig(Export(NewDefaultKeymap()), path)
}
