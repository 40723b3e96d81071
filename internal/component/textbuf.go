package component

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/studiowebux/skycli/internal/keybinds"
)

// buffer is an editable rune buffer with a cursor. Single line buffers
// turn newlines into spaces.
type buffer struct {
	text       []rune
	pos        int
	singleLine bool
}

func newLineBuffer(initial string) *buffer {
	b := &buffer{singleLine: true}
	b.Set(initial)
	return b
}

func newTextBuffer() *buffer {
	return &buffer{}
}

// Set replaces the content and moves the cursor to the end
func (b *buffer) Set(s string) {
	if b.singleLine {
		s = strings.ReplaceAll(s, "\n", " ")
	}
	b.text = []rune(s)
	b.pos = len(b.text)
}

func (b *buffer) String() string {
	return string(b.text)
}

// Cursor returns the cursor position in runes
func (b *buffer) Cursor() int {
	return b.pos
}

// Insert adds runes at the cursor
func (b *buffer) Insert(runes []rune) {
	if len(runes) == 0 {
		return
	}
	if b.singleLine {
		clean := make([]rune, 0, len(runes))
		for _, r := range runes {
			if r == '\n' || r == '\r' {
				r = ' '
			}
			clean = append(clean, r)
		}
		runes = clean
	} else {
		runes = []rune(strings.ReplaceAll(string(runes), "\r\n", "\n"))
	}

	next := make([]rune, 0, len(b.text)+len(runes))
	next = append(next, b.text[:b.pos]...)
	next = append(next, runes...)
	next = append(next, b.text[b.pos:]...)
	b.text = next
	b.pos += len(runes)
}

// Edit applies a text editing command. It reports whether the command is an edit.
func (b *buffer) Edit(cmd keybinds.Action) bool {
	switch cmd {
	case keybinds.ActionTextBackspace:
		if b.pos > 0 {
			b.text = append(b.text[:b.pos-1], b.text[b.pos:]...)
			b.pos--
		}
	case keybinds.ActionTextDelete:
		if b.pos < len(b.text) {
			b.text = append(b.text[:b.pos], b.text[b.pos+1:]...)
		}
	case keybinds.ActionTextMoveLeft:
		if b.pos > 0 {
			b.pos--
		}
	case keybinds.ActionTextMoveRight:
		if b.pos < len(b.text) {
			b.pos++
		}
	case keybinds.ActionTextMoveHome:
		b.pos = b.lineStart()
	case keybinds.ActionTextMoveEnd:
		b.pos = b.lineEnd()
	case keybinds.ActionTextClearBefore:
		start := b.lineStart()
		b.text = append(b.text[:start], b.text[b.pos:]...)
		b.pos = start
	case keybinds.ActionTextClearAfter:
		end := b.lineEnd()
		b.text = append(b.text[:b.pos], b.text[end:]...)
	case keybinds.ActionTextNewline:
		if b.singleLine {
			return false
		}
		b.Insert([]rune{'\n'})
	default:
		return false
	}
	return true
}

func (b *buffer) lineStart() int {
	i := b.pos
	for i > 0 && b.text[i-1] != '\n' {
		i--
	}
	return i
}

func (b *buffer) lineEnd() int {
	i := b.pos
	for i < len(b.text) && b.text[i] != '\n' {
		i++
	}
	return i
}

// Lines splits the content into lines and returns the cursor position as
// a display column and a line index
func (b *buffer) Lines() (lines []string, x, y int) {
	lines = strings.Split(string(b.text), "\n")

	before := string(b.text[:b.pos])
	y = strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return lines, runewidth.StringWidth(before), y
}
