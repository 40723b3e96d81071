package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key    string
	Action Action
	Mode   Mode
}

// Keymap holds keybinding mappings. It is built once at startup from the
// defaults and the user's keybinds.json and is read-only afterwards.
type Keymap struct {
	// bindings maps mode -> chord -> action
	bindings map[Mode]map[string]Action
}

// NewKeymap creates an empty keymap
func NewKeymap() *Keymap {
	return &Keymap{
		bindings: make(map[Mode]map[string]Action),
	}
}

// NormalizeChord collapses whitespace so "g  g" and "g g" name the same sequence
func NormalizeChord(chord string) string {
	return strings.Join(strings.Fields(chord), " ")
}

// Register adds a keybinding to the keymap
func (k *Keymap) Register(mode Mode, chord string, action Action) {
	chord = NormalizeChord(chord)
	if chord == "" {
		return
	}
	if k.bindings[mode] == nil {
		k.bindings[mode] = make(map[string]Action)
	}
	k.bindings[mode][chord] = action
}

// RegisterMultiple registers multiple keybindings for the same action
func (k *Keymap) RegisterMultiple(mode Mode, chords []string, action Action) {
	for _, chord := range chords {
		k.Register(mode, chord, action)
	}
}

// Unregister removes a binding; unknown bindings are ignored
func (k *Keymap) Unregister(mode Mode, chord string) {
	if modeBindings, ok := k.bindings[mode]; ok {
		delete(modeBindings, NormalizeChord(chord))
	}
}

// Lookup finds the action bound to a chord.
// Modes are checked in priority order: specific mode -> global
func (k *Keymap) Lookup(mode Mode, chord string) (Action, bool) {
	chord = NormalizeChord(chord)

	if modeBindings, ok := k.bindings[mode]; ok {
		if action, ok := modeBindings[chord]; ok {
			return action, true
		}
	}

	if globalBindings, ok := k.bindings[ModeGlobal]; ok {
		if action, ok := globalBindings[chord]; ok {
			return action, true
		}
	}

	return "", false
}

// IsPrefix reports whether seq is a proper prefix of a bound sequence in mode or global
func (k *Keymap) IsPrefix(mode Mode, seq string) bool {
	prefix := NormalizeChord(seq) + " "
	for _, m := range []Mode{mode, ModeGlobal} {
		for chord := range k.bindings[m] {
			if strings.HasPrefix(chord, prefix) {
				return true
			}
		}
	}
	return false
}

// HasBinding checks if a chord is bound in a mode or globally
func (k *Keymap) HasBinding(mode Mode, chord string) bool {
	_, ok := k.Lookup(mode, chord)
	return ok
}

// KeysFor returns the chord(s) bound to an action in a mode, falling back to global
func (k *Keymap) KeysFor(mode Mode, action Action) []string {
	keys := keysIn(k.bindings[mode], action)
	if len(keys) == 0 {
		keys = keysIn(k.bindings[ModeGlobal], action)
	}
	return keys
}

func keysIn(bindings map[string]Action, action Action) []string {
	var keys []string
	for chord, act := range bindings {
		if act == action {
			keys = append(keys, chord)
		}
	}
	sort.Strings(keys)
	return keys
}

// BindingString returns a human-readable string of keys bound to an action
func (k *Keymap) BindingString(mode Mode, action Action) string {
	keys := k.KeysFor(mode, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, ", ")
}

// Bindings returns the bindings of a single mode, sorted by chord
func (k *Keymap) Bindings(mode Mode) []Binding {
	var bindings []Binding
	for chord, action := range k.bindings[mode] {
		bindings = append(bindings, Binding{Key: chord, Action: action, Mode: mode})
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Key < bindings[j].Key
	})
	return bindings
}

// Modes returns every mode that has at least one binding, in display order
func (k *Keymap) Modes() []Mode {
	var modes []Mode
	seen := make(map[Mode]bool)
	for _, m := range AllModes {
		if len(k.bindings[m]) > 0 {
			modes = append(modes, m)
			seen[m] = true
		}
	}
	var extra []Mode
	for m, b := range k.bindings {
		if !seen[m] && len(b) > 0 {
			extra = append(extra, m)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(modes, extra...)
}

// Clone creates a deep copy of the keymap
func (k *Keymap) Clone() *Keymap {
	clone := NewKeymap()
	for mode, modeBindings := range k.bindings {
		for chord, action := range modeBindings {
			clone.Register(mode, chord, action)
		}
	}
	return clone
}

// Merge combines bindings from another keymap, with other taking precedence
func (k *Keymap) Merge(other *Keymap) {
	for mode, modeBindings := range other.bindings {
		for chord, action := range modeBindings {
			k.Register(mode, chord, action)
		}
	}
}

// String renders the keymap one binding per line, used by `skycli keybinds check`
func (k *Keymap) String() string {
	var sb strings.Builder
	for _, mode := range k.Modes() {
		fmt.Fprintf(&sb, "[%s]\n", mode)
		for _, b := range k.Bindings(mode) {
			fmt.Fprintf(&sb, "  %-12s %s\n", b.Key, b.Action)
		}
	}
	return sb.String()
}
