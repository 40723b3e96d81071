package keybinds

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "unreachable", "warning"
	Mode    Mode
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in mode '%s': %s", e.Type, e.Key, e.Mode, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

func (r *ValidationResult) addError(kind string, mode Mode, key, msg string) {
	r.Errors = append(r.Errors, ValidationError{Type: kind, Mode: mode, Key: key, Message: msg})
}

func (r *ValidationResult) addWarning(mode Mode, key, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Type: "warning", Mode: mode, Key: key, Message: msg})
}

// Validator validates keybinding configurations
type Validator struct {
	// reservedKeys are keys that must keep their action in the global mode
	reservedKeys map[string]Action
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuit, // Quit should always work
		},
	}
}

// ValidateKeymap validates an effective keymap
func (v *Validator) ValidateKeymap(keymap *Keymap) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	v.checkReservedKeys(keymap, result)
	v.checkGlobalPrintable(keymap, result)
	v.checkUnreachable(keymap, result)
	v.checkShadowing(keymap, result)

	return result
}

// ValidateConfig validates a configuration as it would apply over the defaults
func (v *Validator) ValidateConfig(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	for _, modeName := range sortedKeys(config.Bindings) {
		mode := Mode(modeName)
		if !isKnownMode(mode) {
			result.addError("invalid", mode, "", "unknown mode")
			continue
		}
		bindings := config.Bindings[modeName]
		for _, key := range sortedKeys(bindings) {
			if err := ValidateKey(key); err != nil {
				result.addError("invalid", mode, key, err.Error())
				continue
			}
			if actionStr := bindings[key]; actionStr != "" {
				if err := ValidateAction(actionStr); err != nil {
					result.addError("invalid", mode, key, err.Error())
				}
			}
		}
	}
	if result.HasErrors() {
		return result
	}

	keymap := NewDefaultKeymap()
	if err := ApplyConfig(keymap, config); err != nil {
		result.addError("invalid", "", "", err.Error())
		return result
	}

	effective := v.ValidateKeymap(keymap)
	result.Errors = append(result.Errors, effective.Errors...)
	result.Warnings = append(result.Warnings, effective.Warnings...)
	return result
}

// checkReservedKeys checks if any reserved keys have been rebound
func (v *Validator) checkReservedKeys(keymap *Keymap, result *ValidationResult) {
	for key, want := range v.reservedKeys {
		if got, ok := keymap.bindings[ModeGlobal][key]; !ok || got != want {
			result.addError("conflict", ModeGlobal, key, fmt.Sprintf("reserved key must stay bound to %s", want))
		}
		for _, mode := range sortedModes(keymap) {
			if mode == ModeGlobal {
				continue
			}
			if got, ok := keymap.bindings[mode][key]; ok && got != want {
				result.addError("conflict", mode, key, fmt.Sprintf("reserved key rebound to %s", got))
			}
		}
	}
}

// checkGlobalPrintable flags global bindings that would swallow typed characters in text modes
func (v *Validator) checkGlobalPrintable(keymap *Keymap, result *ValidationResult) {
	for _, b := range keymap.Bindings(ModeGlobal) {
		first := strings.Fields(b.Key)[0]
		if isPrintableChord(first) {
			result.addError("invalid", ModeGlobal, b.Key, "global bindings must not start with a printable key")
		}
	}
}

// checkUnreachable flags bindings that can never fire because a longer
// sequence starting with the same chord makes the resolver wait instead
func (v *Validator) checkUnreachable(keymap *Keymap, result *ValidationResult) {
	for _, mode := range sortedModes(keymap) {
		for _, b := range keymap.Bindings(mode) {
			if keymap.IsPrefix(mode, b.Key) {
				result.addError("unreachable", mode, b.Key,
					fmt.Sprintf("%s is hidden by a longer sequence starting with the same key", b.Action))
			}
		}
	}
}

// checkShadowing checks for mode-specific bindings that shadow global bindings
func (v *Validator) checkShadowing(keymap *Keymap, result *ValidationResult) {
	globalBindings := keymap.bindings[ModeGlobal]
	if globalBindings == nil {
		return
	}

	for _, mode := range sortedModes(keymap) {
		if mode == ModeGlobal {
			continue
		}
		for _, b := range keymap.Bindings(mode) {
			if globalAction, hasGlobal := globalBindings[b.Key]; hasGlobal && b.Action != globalAction {
				result.addWarning(mode, b.Key, fmt.Sprintf("shadows global binding (%s -> %s)", globalAction, b.Action))
			}
		}
	}
}

// FindConflicts finds all conflicting keybindings in a config
func FindConflicts(config *Config) []string {
	validator := NewValidator()
	result := validator.ValidateConfig(config)

	var conflicts []string
	for _, err := range result.Errors {
		if err.Type == "conflict" || err.Type == "unreachable" {
			conflicts = append(conflicts, err.Error())
		}
	}

	return conflicts
}

var validModifiers = []string{"ctrl+", "alt+", "shift+", "super+"}

// ValidateKey checks if a key string is valid. Sequences are checked chord by chord.
func ValidateKey(key string) error {
	chords := strings.Fields(key)
	if len(chords) == 0 {
		return fmt.Errorf("key cannot be empty")
	}

	for _, chord := range chords {
		for _, mod := range validModifiers {
			if chord == mod {
				return fmt.Errorf("modifier without key: %s", chord)
			}
		}
	}

	return nil
}

// ValidateAction checks if an action string is valid
func ValidateAction(actionStr string) error {
	if actionStr == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if !Action(actionStr).IsKnown() {
		return fmt.Errorf("unknown action: %s", actionStr)
	}
	return nil
}

// isPrintableChord reports whether a chord types a character ("a", "?", "space")
func isPrintableChord(chord string) bool {
	if chord == "space" || chord == " " {
		return true
	}
	return utf8.RuneCountInString(chord) == 1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedModes(keymap *Keymap) []Mode {
	modes := make([]Mode, 0, len(keymap.bindings))
	for m := range keymap.bindings {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
