package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/app"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/widget"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#5f87ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleAccent = lipgloss.NewStyle().
			Foreground(colorCyan)

	styleLink = lipgloss.NewStyle().
			Foreground(colorBlue).
			Underline(true)

	styleCursor = lipgloss.NewStyle().
			Reverse(true)

	styleNormal = lipgloss.NewStyle()
)

const selectionMarker = "▌ "

func spanStyle(s widget.Style) lipgloss.Style {
	switch s {
	case widget.StyleTitle:
		return styleTitle
	case widget.StyleSubtle:
		return styleSubtle
	case widget.StyleAccent, widget.StyleMention:
		return styleAccent
	case widget.StyleSuccess:
		return styleSuccess
	case widget.StyleWarning, widget.StyleTag:
		return styleWarning
	case widget.StyleError:
		return styleError
	case widget.StyleLink:
		return styleLink
	default:
		return styleNormal
	}
}

// block is a painted node: its lines and the line range that must stay visible
type block struct {
	lines   []string
	focused bool
	top     int
	bottom  int
}

func (b *block) append(o block) {
	if o.focused && !b.focused {
		b.focused = true
		b.top = len(b.lines) + o.top
		b.bottom = len(b.lines) + o.bottom
	}
	b.lines = append(b.lines, o.lines...)
}

func (b *block) focus(top, bottom int) {
	b.focused = true
	b.top, b.bottom = top, bottom
}

// painter turns widget nodes into terminal lines
type painter struct {
	spinner string // current spinner frame
}

func (p painter) paint(n widget.Node, width int) block {
	if width < 1 {
		width = 1
	}
	switch n := n.(type) {
	case widget.Text:
		var b block
		for _, l := range n.Lines {
			b.lines = append(b.lines, renderLine(l, width, false)...)
		}
		return b
	case widget.List:
		return p.list(n, width)
	case widget.Form:
		return p.form(n, width)
	case widget.Editor:
		return p.editor(n, width)
	case widget.Column:
		var b block
		for _, child := range n.Children {
			b.append(p.paint(child, width))
		}
		return b
	case widget.Box:
		return p.box(n, width)
	case widget.Spinner:
		return block{lines: []string{p.spinner + " " + styleSubtle.Render(n.Label)}}
	}
	return block{}
}

// renderLine styles the spans of l and fits them to width, wrapping when
// the line allows it and truncating otherwise. dim overrides span styles.
func renderLine(l widget.Line, width int, dim bool) []string {
	var sb strings.Builder
	for _, s := range l.Spans {
		style := spanStyle(s.Style)
		if dim {
			style = styleSubtle
		}
		sb.WriteString(style.Render(s.Text))
	}
	out := sb.String()

	if l.Wrap {
		return strings.Split(wrap.String(wordwrap.String(out, width), width), "\n")
	}
	return []string{truncate.StringWithTail(out, uint(width), "…")}
}

func (p painter) list(l widget.List, width int) block {
	var b block
	if len(l.Items) == 0 {
		if l.Empty != "" {
			b.lines = append(b.lines, renderLine(widget.Wrapped(l.Empty, widget.StyleSubtle), width, false)...)
		}
		return b
	}

	spaced := false
	for _, item := range l.Items {
		if len(item.Lines) > 1 {
			spaced = true
			break
		}
	}

	inner := width - SelectionMarkerWidth
	for i, item := range l.Items {
		if spaced && i > 0 {
			b.lines = append(b.lines, "")
		}
		start := len(b.lines)
		prefix := strings.Repeat(" ", SelectionMarkerWidth)
		if i == l.Selected {
			prefix = styleAccent.Render(selectionMarker)
		}
		for _, line := range item.Lines {
			for _, painted := range renderLine(line, inner, item.Dim) {
				b.lines = append(b.lines, prefix+painted)
			}
		}
		if i == l.Selected {
			b.focus(start, len(b.lines)-1)
		}
	}
	return b
}

func (p painter) form(f widget.Form, width int) block {
	var b block
	for i, field := range f.Fields {
		if i > 0 {
			b.lines = append(b.lines, "")
		}
		b.lines = append(b.lines, styleSubtle.Render(field.Label))

		value := field.Value
		if field.Masked {
			value = strings.Repeat("*", len([]rune(value)))
		}
		prefix := "  "
		if field.Focused {
			prefix = styleAccent.Render("> ")
		}
		b.lines = append(b.lines, prefix+fieldText(value, field.Cursor, field.Focused, width-2))
		if field.Focused {
			b.focus(len(b.lines)-2, len(b.lines)-1)
		}
	}
	return b
}

// fieldText draws a single line value with its cursor, dropping leading
// characters when the value is wider than width
func fieldText(value string, cursor int, focused bool, width int) string {
	runes := []rune(value)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if cursor < 0 {
		cursor = 0
	}

	start := 0
	for runewidth.StringWidth(string(runes[start:cursor]))+1 > width && start < cursor {
		start++
	}
	visible := runes[start:]

	if !focused {
		return runewidth.Truncate(string(visible), width, "…")
	}
	return withCursor(visible, cursor-start, width)
}

// withCursor renders runes with the character at pos reversed
func withCursor(runes []rune, pos, width int) string {
	before := string(runes[:pos])
	at := " "
	after := ""
	if pos < len(runes) {
		at = string(runes[pos])
		after = string(runes[pos+1:])
	}
	rest := width - runewidth.StringWidth(before) - runewidth.StringWidth(at)
	if rest < 0 {
		rest = 0
	}
	return before + styleCursor.Render(at) + runewidth.Truncate(after, rest, "")
}

func (p painter) editor(e widget.Editor, width int) block {
	var b block
	for y, line := range e.Lines {
		if y != e.CursorY {
			b.lines = append(b.lines, renderLine(line, width, false)...)
			continue
		}
		b.lines = append(b.lines, cursorLine(line.String(), e.CursorX, width))
		b.focus(len(b.lines)-1, len(b.lines)-1)
	}
	if len(e.Lines) == 0 {
		b.lines = append(b.lines, styleCursor.Render(" "))
		b.focus(0, 0)
	}

	if e.Counter != "" {
		style := styleSubtle
		if e.Over {
			style = styleError
		}
		b.lines = append(b.lines, "", lipgloss.PlaceHorizontal(width, lipgloss.Right, style.Render(e.Counter)))
	}
	return b
}

// cursorLine draws the editor line holding the cursor. x is a display column.
func cursorLine(text string, x, width int) string {
	runes := []rune(text)
	pos, col := 0, 0
	for pos < len(runes) && col < x {
		col += runewidth.RuneWidth(runes[pos])
		pos++
	}
	return withCursor(runes, pos, width)
}

func (p painter) box(bx widget.Box, width int) block {
	inner := p.paint(bx.Child, width-BoxOverheadWidth)

	var content []string
	offset := 1 // top border
	if bx.Title != "" {
		title := styleSubtle.Render(bx.Title)
		if bx.Focused {
			title = styleTitle.Render(bx.Title)
		}
		content = append(content, title)
		offset++
	}
	content = append(content, inner.lines...)

	border := colorGray
	if bx.Focused {
		border = colorGreen
	}
	rendered := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - BoxBorderWidth).
		Render(strings.Join(content, "\n"))

	b := block{lines: strings.Split(rendered, "\n")}
	if inner.focused {
		b.focus(inner.top+offset, inner.bottom+offset)
	}
	return b
}

// renderHeader draws the breadcrumb and the title of the focused screen
func renderHeader(sc app.Screen, width int) string {
	title := styleTitle.Render(sc.Tree.Title)
	if sc.Breadcrumb != "" {
		title = styleSubtle.Render(sc.Breadcrumb+" › ") + title
	}
	return truncate.StringWithTail(title, uint(width), "…")
}

// renderNotice draws the component's local message
func renderNotice(tree widget.Tree, width int) string {
	if tree.Notice == "" {
		return ""
	}
	return truncate.StringWithTail(spanStyle(tree.NoticeStyle).Render(tree.Notice), uint(width), "…")
}

// renderBanner draws the shell's error banner with its dismiss key
func renderBanner(b *app.Banner, km *keybinds.Keymap, mode keybinds.Mode, width int) string {
	if b == nil {
		return ""
	}
	style := styleWarning
	if b.Kind == action.Fatal || b.Kind == action.Auth {
		style = styleError
	}
	hint := styleSubtle.Render(fmt.Sprintf(" (%s to dismiss)", km.BindingString(mode, keybinds.ActionDismiss)))
	return truncate.StringWithTail(style.Render(b.Message)+hint, uint(width), "…")
}

// renderFooter lists the keys of the screen's hinted actions, or the
// keys typed so far while a sequence is pending
func renderFooter(sc app.Screen, km *keybinds.Keymap, width int) string {
	if sc.Pending != "" {
		return styleAccent.Render(sc.Pending + " …")
	}

	var parts []string
	for _, a := range sc.Tree.Hints {
		parts = append(parts, styleAccent.Render(km.BindingString(sc.Mode, a))+" "+styleSubtle.Render(hintLabel(a)))
	}
	return truncate.StringWithTail(strings.Join(parts, styleSubtle.Render(" · ")), uint(width), "…")
}

func hintLabel(a keybinds.Action) string {
	return strings.ReplaceAll(string(a), "_", " ")
}

// renderHelp lists the bindings of the current mode
func (p painter) renderHelp(bindings []keybinds.Binding, width int) block {
	var lines []widget.Line
	for _, b := range bindings {
		key := runewidth.FillRight(b.Key, HelpKeyColumn)
		lines = append(lines, widget.Line{Spans: []widget.Span{
			{Text: key, Style: widget.StyleAccent},
			{Text: hintLabel(b.Action), Style: widget.StyleNormal},
		}})
	}
	return p.box(widget.Box{Title: "Keys", Child: widget.Text{Lines: lines}, Focused: true}, width)
}
