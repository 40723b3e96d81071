package component

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

// ago formats the time elapsed since t the way the Bluesky app does
func ago(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", max(0, int(d.Seconds())))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case now.Year() == t.Year():
		return t.Local().Format("Jan 2")
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}

// authorLine is the header of a post: name, handle and age
func authorLine(now time.Time, p types.PostSummary) widget.Line {
	spans := []widget.Span{
		{Text: p.Author.Name(), Style: widget.StyleTitle},
	}
	if p.Author.DisplayName != "" {
		spans = append(spans, widget.Span{Text: " @" + p.Author.Handle, Style: widget.StyleSubtle})
	}
	if a := ago(now, p.CreatedAt); a != "" {
		spans = append(spans, widget.Span{Text: " · " + a, Style: widget.StyleSubtle})
	}
	return widget.Line{Spans: spans}
}

// textLines renders post text with its facets highlighted
func textLines(text string, facets []types.Facet) []widget.Line {
	var lines []widget.Line
	offset := 0
	for _, raw := range strings.Split(text, "\n") {
		lines = append(lines, widget.Line{Spans: highlight(raw, offset, facets), Wrap: true})
		offset += len(raw) + 1
	}
	return lines
}

// highlight splits one line of text, starting at byte offset start of the
// full text, into spans styled by the facets covering it
func highlight(line string, start int, facets []types.Facet) []widget.Span {
	sorted := make([]types.Facet, len(facets))
	copy(sorted, facets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ByteStart < sorted[j].ByteStart })

	end := start + len(line)
	var spans []widget.Span
	pos := start
	for _, f := range sorted {
		if f.ByteEnd <= pos || f.ByteStart >= end || f.ByteStart < pos {
			continue
		}
		fEnd := min(f.ByteEnd, end)
		if f.ByteStart > pos {
			spans = append(spans, widget.Span{Text: line[pos-start : f.ByteStart-start]})
		}
		spans = append(spans, widget.Span{Text: line[f.ByteStart-start : fEnd-start], Style: facetStyle(f.Kind)})
		pos = fEnd
	}
	if pos < end || len(spans) == 0 {
		spans = append(spans, widget.Span{Text: line[pos-start:]})
	}
	return spans
}

func facetStyle(kind types.FacetKind) widget.Style {
	switch kind {
	case types.FacetMention:
		return widget.StyleMention
	case types.FacetLink:
		return widget.StyleLink
	case types.FacetTag:
		return widget.StyleTag
	default:
		return widget.StyleNormal
	}
}

// countsLine shows reply, repost, like and quote counts, marking the viewer's own reactions
func countsLine(p types.PostSummary) widget.Line {
	like := widget.StyleSubtle
	if p.Viewer.Like != "" {
		like = widget.StyleAccent
	}
	repost := widget.StyleSubtle
	if p.Viewer.Repost != "" {
		repost = widget.StyleSuccess
	}
	return widget.Line{Spans: []widget.Span{
		{Text: fmt.Sprintf("↩ %d  ", p.ReplyCount), Style: widget.StyleSubtle},
		{Text: fmt.Sprintf("⟳ %d  ", p.RepostCount), Style: repost},
		{Text: fmt.Sprintf("♥ %d", p.LikeCount), Style: like},
		{Text: fmt.Sprintf("  ❝ %d", p.QuoteCount), Style: widget.StyleSubtle},
	}}
}

// embedLines describes images, link cards and quoted posts
func embedLines(now time.Time, e *types.Embed) []widget.Line {
	if e == nil {
		return nil
	}
	var lines []widget.Line
	for _, img := range e.Images {
		alt := img.Alt
		if alt == "" {
			alt = "no description"
		}
		lines = append(lines, widget.Plain("[image] "+alt, widget.StyleSubtle))
	}
	if e.External != nil {
		lines = append(lines,
			widget.Plain("[link] "+e.External.Title, widget.StyleSubtle),
			widget.Plain("       "+e.External.URI, widget.StyleLink),
		)
	}
	if q := e.Quote; q != nil {
		header := authorLine(now, *q)
		header.Spans = append([]widget.Span{{Text: "│ ", Style: widget.StyleSubtle}}, header.Spans...)
		lines = append(lines, header)
		for _, l := range textLines(q.Text, q.Facets) {
			l.Spans = append([]widget.Span{{Text: "│ ", Style: widget.StyleSubtle}}, l.Spans...)
			lines = append(lines, l)
		}
	}
	return lines
}

// postItem is the list entry of a post in a feed
func postItem(now time.Time, p types.PostSummary) widget.Item {
	var lines []widget.Line
	if p.Reason != nil {
		lines = append(lines, widget.Plain("⟳ reposted by "+p.Reason.By.Name(), widget.StyleSuccess))
	}
	if p.Parent != nil {
		to := "a deleted post"
		if p.Parent.Author.Handle != "" {
			to = "@" + p.Parent.Author.Handle
		}
		lines = append(lines, widget.Plain("↩ reply to "+to, widget.StyleSubtle))
	}
	lines = append(lines, authorLine(now, p))
	lines = append(lines, textLines(p.Text, p.Facets)...)
	lines = append(lines, embedLines(now, p.Embed)...)
	lines = append(lines, countsLine(p))
	return widget.Item{Lines: lines}
}

// firstLine returns the text up to the first newline
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
