package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/widget"
)

func TestKeyFromMsg(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want keybinds.Key
	}{
		{
			name: "rune",
			msg:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")},
			want: keybinds.Key{Name: "g", Runes: []rune("g")},
		},
		{
			name: "alt rune is a chord only",
			msg:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true},
			want: keybinds.Key{Name: "alt+x"},
		},
		{
			name: "paste",
			msg:  tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello world"), Paste: true},
			want: keybinds.Key{Name: "hello world", Runes: []rune("hello world"), Paste: true},
		},
		{
			name: "control chord",
			msg:  tea.KeyMsg{Type: tea.KeyCtrlC},
			want: keybinds.Key{Name: "ctrl+c"},
		},
		{
			name: "enter",
			msg:  tea.KeyMsg{Type: tea.KeyEnter},
			want: keybinds.Key{Name: "enter"},
		},
		{
			name: "space types a space",
			msg:  tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
			want: keybinds.Key{Name: " ", Runes: []rune{' '}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyFromMsg(tt.msg)
			if got.Name != tt.want.Name || string(got.Runes) != string(tt.want.Runes) || got.Paste != tt.want.Paste {
				t.Errorf("keyFromMsg() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestModel_ViewShowsLogin(t *testing.T) {
	m, _ := CreateTestModel(t)

	view := m.View()
	for _, want := range []string{"skycli", "Sign in to Bluesky", "Handle or email", "App password", "submit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := len(strings.Split(view, "\n")); got > 24 {
		t.Errorf("view has %d lines, terminal has 24", got)
	}
}

func TestModel_TypingReachesTheFocusedField(t *testing.T) {
	m, _ := CreateTestModel(t)

	for _, r := range "alice.test" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if view := m.View(); !strings.Contains(view, "alice.test") {
		t.Errorf("typed handle not shown:\n%s", view)
	}
}

func TestModel_QueuedErrorShowsBanner(t *testing.T) {
	m, _ := CreateTestModel(t)

	_, cmd := m.Update(actionMsg{action: action.Error{Kind: action.Transient, Message: "network hiccup"}})
	if cmd == nil {
		t.Error("model should keep listening to the queue")
	}
	view := m.View()
	if !strings.Contains(view, "network hiccup") || !strings.Contains(view, "ctrl+l to dismiss") {
		t.Errorf("banner missing:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if strings.Contains(m.View(), "network hiccup") {
		t.Error("ctrl+l should dismiss the banner")
	}
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
		{name: "quit action", msg: actionMsg{action: action.Quit{}}},
		{name: "queue closed", msg: queueClosedMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := CreateTestModel(t)
			_, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := CreateTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	view := m.View()
	if !strings.Contains(view, "Keys") || !strings.Contains(view, "next field") {
		t.Errorf("help overlay missing:\n%s", view)
	}
}

func TestPainter_List(t *testing.T) {
	list := widget.List{
		Items: []widget.Item{
			{Lines: []widget.Line{widget.Plain("first", widget.StyleNormal)}},
			{Lines: []widget.Line{widget.Plain("second", widget.StyleNormal)}},
			{Lines: []widget.Line{widget.Plain("third", widget.StyleNormal)}},
		},
		Selected: 1,
	}

	b := painter{}.paint(list, 40)
	if len(b.lines) != 3 {
		t.Fatalf("lines = %q", b.lines)
	}
	if !b.focused || b.top != 1 || b.bottom != 1 {
		t.Errorf("focus = %v %d..%d, want line 1", b.focused, b.top, b.bottom)
	}
	if !strings.Contains(b.lines[1], "▌") || strings.Contains(b.lines[0], "▌") {
		t.Errorf("marker on the wrong line: %q", b.lines)
	}
}

func TestPainter_EmptyList(t *testing.T) {
	b := painter{}.paint(widget.List{Empty: "nothing here"}, 40)
	if len(b.lines) != 1 || !strings.Contains(b.lines[0], "nothing here") || b.focused {
		t.Errorf("lines = %q focused = %v", b.lines, b.focused)
	}
}

func TestRenderLine(t *testing.T) {
	long := "the quick brown fox jumps over the lazy dog"

	tests := []struct {
		name      string
		line      widget.Line
		width     int
		wantLines int
	}{
		{name: "short", line: widget.Plain("hello", widget.StyleNormal), width: 20, wantLines: 1},
		{name: "wrapped", line: widget.Wrapped(long, widget.StyleNormal), width: 20, wantLines: 3},
		{name: "truncated", line: widget.Plain(long, widget.StyleNormal), width: 20, wantLines: 1},
		{name: "long word is broken", line: widget.Wrapped(strings.Repeat("x", 30), widget.StyleNormal), width: 10, wantLines: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderLine(tt.line, tt.width, false)
			if len(got) != tt.wantLines {
				t.Fatalf("renderLine() = %q, want %d lines", got, tt.wantLines)
			}
			for _, l := range got {
				if w := len([]rune(strings.TrimRight(l, " "))); w > tt.width {
					t.Errorf("line %q is wider than %d", l, tt.width)
				}
			}
		})
	}
}

func TestPainter_Editor(t *testing.T) {
	e := widget.Editor{
		Lines:   []widget.Line{widget.Plain("one", widget.StyleNormal), widget.Plain("two", widget.StyleNormal)},
		CursorX: 3,
		CursorY: 1,
		Counter: "6/300",
	}

	b := painter{}.paint(e, 30)
	if !b.focused || b.top != 1 {
		t.Errorf("focus = %v line %d, want the cursor line", b.focused, b.top)
	}
	if last := b.lines[len(b.lines)-1]; !strings.Contains(last, "6/300") {
		t.Errorf("counter missing: %q", b.lines)
	}
}

func TestPainter_BoxShiftsFocus(t *testing.T) {
	list := widget.List{
		Items:    []widget.Item{{Lines: []widget.Line{widget.Plain("a", widget.StyleNormal)}}},
		Selected: 0,
	}
	b := painter{}.paint(widget.Box{Title: "title", Child: list}, 30)

	// border, title, then the item
	if !b.focused || b.top != 2 {
		t.Errorf("focus = %v line %d, want 2", b.focused, b.top)
	}
	if !strings.Contains(b.lines[b.top], "a") {
		t.Errorf("focused line = %q", b.lines[b.top])
	}
}

func TestFieldText_ScrollsToCursor(t *testing.T) {
	value := strings.Repeat("a", 30) + "END"
	got := fieldText(value, len([]rune(value)), true, 10)
	if !strings.Contains(got, "END") {
		t.Errorf("fieldText() = %q, want the tail near the cursor", got)
	}
}
