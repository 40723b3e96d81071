// Package widget describes what a screen wants drawn. Components build a
// Tree; the tui package paints it.
package widget

import (
	"strings"

	"github.com/studiowebux/skycli/internal/keybinds"
)

// Style is a semantic style; the painter maps it to colors
type Style int

const (
	StyleNormal Style = iota
	StyleTitle
	StyleSubtle
	StyleAccent
	StyleSuccess
	StyleWarning
	StyleError
	StyleLink
	StyleMention
	StyleTag
)

// Node is one element of a Tree
type Node interface {
	isNode()
}

// Span is a run of text with one style
type Span struct {
	Text  string
	Style Style
}

// Line is a single line of spans. Wrap lets the painter break it at the available width.
type Line struct {
	Spans []Span
	Wrap  bool
}

// Text is a paragraph of lines
type Text struct {
	Lines []Line
}

// Item is one entry of a List
type Item struct {
	Lines []Line
	// Dim draws the item muted, e.g. for a feed that stopped updating
	Dim bool
}

// List is a vertically scrolling list with one selected item
type List struct {
	Items    []Item
	Selected int
	// Empty is shown when there are no items
	Empty string
}

// Field is a labeled single line input
type Field struct {
	Label   string
	Value   string
	Cursor  int
	Focused bool
	Masked  bool
}

// Form is a set of fields
type Form struct {
	Fields []Field
}

// Editor is a multi-line text area with a counter
type Editor struct {
	Lines   []Line
	CursorX int
	CursorY int
	Counter string
	// Over marks the counter as exceeding the limit
	Over bool
}

// Column stacks children vertically
type Column struct {
	Children []Node
}

// Box draws a border around Child
type Box struct {
	Title   string
	Child   Node
	Focused bool
}

// Spinner is an activity indicator
type Spinner struct {
	Label string
}

func (Text) isNode()    {}
func (List) isNode()    {}
func (Form) isNode()    {}
func (Editor) isNode()  {}
func (Column) isNode()  {}
func (Box) isNode()     {}
func (Spinner) isNode() {}

// Tree is the full description of one screen
type Tree struct {
	Title string
	Body  Node
	// Notice is a message local to the screen, such as a validation error
	Notice      string
	NoticeStyle Style
	// Hints lists the actions whose key bindings the footer shows
	Hints []keybinds.Action
}

// Plain builds a one-line, single-span Line
func Plain(text string, style Style) Line {
	return Line{Spans: []Span{{Text: text, Style: style}}}
}

// Wrapped builds a Line the painter may wrap
func Wrapped(text string, style Style) Line {
	return Line{Spans: []Span{{Text: text, Style: style}}, Wrap: true}
}

// Paragraph builds a Text from plain strings
func Paragraph(style Style, lines ...string) Text {
	t := Text{}
	for _, l := range lines {
		t.Lines = append(t.Lines, Wrapped(l, style))
	}
	return t
}

// String returns the text of a line without styling
func (l Line) String() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Flatten returns the unstyled text of a node, one entry per line. It is
// used by tests and by the clipboard.
func Flatten(n Node) []string {
	var out []string
	switch n := n.(type) {
	case Text:
		for _, l := range n.Lines {
			out = append(out, l.String())
		}
	case List:
		if len(n.Items) == 0 && n.Empty != "" {
			out = append(out, n.Empty)
		}
		for _, item := range n.Items {
			for _, l := range item.Lines {
				out = append(out, l.String())
			}
		}
	case Form:
		for _, f := range n.Fields {
			v := f.Value
			if f.Masked {
				v = strings.Repeat("*", len([]rune(v)))
			}
			out = append(out, f.Label+": "+v)
		}
	case Editor:
		for _, l := range n.Lines {
			out = append(out, l.String())
		}
		if n.Counter != "" {
			out = append(out, n.Counter)
		}
	case Column:
		for _, c := range n.Children {
			out = append(out, Flatten(c)...)
		}
	case Box:
		if n.Title != "" {
			out = append(out, n.Title)
		}
		out = append(out, Flatten(n.Child)...)
	case Spinner:
		out = append(out, n.Label)
	}
	return out
}

// Contains reports whether any flattened line of the tree contains s
func (t Tree) Contains(s string) bool {
	if strings.Contains(t.Title, s) || strings.Contains(t.Notice, s) {
		return true
	}
	for _, l := range Flatten(t.Body) {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}
