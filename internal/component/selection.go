package component

import "github.com/studiowebux/skycli/internal/keybinds"

// pageSize is how far page up/down moves a selection
const pageSize = 10

// selection is the cursor of a list
type selection struct {
	index int
}

// Move applies a navigation command to a list of n items. It reports
// whether cmd is a navigation command.
func (s *selection) Move(cmd keybinds.Action, n int) bool {
	switch cmd {
	case keybinds.ActionNavigateUp:
		s.index--
	case keybinds.ActionNavigateDown:
		s.index++
	case keybinds.ActionPageUp:
		s.index -= pageSize
	case keybinds.ActionPageDown:
		s.index += pageSize
	case keybinds.ActionGoToTop:
		s.index = 0
	case keybinds.ActionGoToBottom:
		s.index = n - 1
	default:
		return false
	}
	s.Clamp(n)
	return true
}

// Clamp keeps the selection inside a list of n items
func (s *selection) Clamp(n int) {
	if s.index >= n {
		s.index = n - 1
	}
	if s.index < 0 {
		s.index = 0
	}
}

// Valid reports whether the selection points at an item of a list of n items
func (s *selection) Valid(n int) bool {
	return s.index >= 0 && s.index < n
}
