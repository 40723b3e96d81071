package component

import (
	"reflect"
	"testing"

	"github.com/studiowebux/skycli/internal/keybinds"
)

func TestBuffer_Edit(t *testing.T) {
	tests := []struct {
		name       string
		singleLine bool
		initial    string
		cmds       []keybinds.Action
		insert     string
		want       string
		wantCursor int
	}{
		{
			name:       "backspace at end",
			initial:    "abc",
			cmds:       []keybinds.Action{keybinds.ActionTextBackspace},
			want:       "ab",
			wantCursor: 2,
		},
		{
			name:       "insert in the middle",
			initial:    "ac",
			cmds:       []keybinds.Action{keybinds.ActionTextMoveLeft},
			insert:     "b",
			want:       "abc",
			wantCursor: 2,
		},
		{
			name:       "delete under the cursor",
			initial:    "abc",
			cmds:       []keybinds.Action{keybinds.ActionTextMoveHome, keybinds.ActionTextDelete},
			want:       "bc",
			wantCursor: 0,
		},
		{
			name:       "clear before stops at the line start",
			initial:    "one\ntwo three",
			cmds:       []keybinds.Action{keybinds.ActionTextClearBefore},
			want:       "one\n",
			wantCursor: 4,
		},
		{
			name:       "clear after stops at the line end",
			initial:    "one\ntwo",
			cmds:       []keybinds.Action{keybinds.ActionTextMoveLeft, keybinds.ActionTextMoveLeft, keybinds.ActionTextMoveLeft, keybinds.ActionTextMoveLeft, keybinds.ActionTextMoveHome, keybinds.ActionTextClearAfter},
			want:       "\ntwo",
			wantCursor: 0,
		},
		{
			name:       "newline in a text buffer",
			initial:    "a",
			cmds:       []keybinds.Action{keybinds.ActionTextNewline},
			want:       "a\n",
			wantCursor: 2,
		},
		{
			name:       "pasted newlines become spaces in a line buffer",
			singleLine: true,
			insert:     "a\nb",
			want:       "a b",
			wantCursor: 3,
		},
		{
			name:       "cursor stays in bounds",
			initial:    "ab",
			cmds:       []keybinds.Action{keybinds.ActionTextMoveRight, keybinds.ActionTextDelete},
			want:       "ab",
			wantCursor: 2,
		},
		{
			name:       "multibyte runes",
			initial:    "日本語",
			cmds:       []keybinds.Action{keybinds.ActionTextMoveLeft, keybinds.ActionTextBackspace},
			want:       "日語",
			wantCursor: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTextBuffer()
			if tt.singleLine {
				b = newLineBuffer("")
			}
			b.Set(tt.initial)
			for _, cmd := range tt.cmds {
				if !b.Edit(cmd) {
					t.Fatalf("Edit(%s) = false", cmd)
				}
			}
			b.Insert([]rune(tt.insert))

			if b.String() != tt.want {
				t.Errorf("String() = %q, want %q", b.String(), tt.want)
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
		})
	}
}

func TestBuffer_Lines(t *testing.T) {
	b := newTextBuffer()
	b.Set("first\n日本")

	lines, x, y := b.Lines()
	if !reflect.DeepEqual(lines, []string{"first", "日本"}) {
		t.Errorf("lines = %q", lines)
	}
	// wide runes take two columns
	if x != 4 || y != 1 {
		t.Errorf("cursor = (%d, %d), want (4, 1)", x, y)
	}

	if newLineBuffer("").Edit(keybinds.ActionTextNewline) {
		t.Error("a line buffer must not accept newlines")
	}
}
