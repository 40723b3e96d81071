package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/skycli/internal/keybinds"
)

// keyFromMsg converts a Bubble Tea key event into the notation the keymap uses.
// Name is the chord ("a", "ctrl+c", "alt+x"); Runes carries typed text.
func keyFromMsg(msg tea.KeyMsg) keybinds.Key {
	key := keybinds.Key{Name: msg.String(), Paste: msg.Paste}

	switch msg.Type {
	case tea.KeyRunes:
		if msg.Paste {
			// String() wraps pasted text in brackets
			key.Name = string(msg.Runes)
		}
		if !msg.Alt {
			key.Runes = msg.Runes
		}
	case tea.KeySpace:
		key.Runes = []rune{' '}
	}

	return key
}
