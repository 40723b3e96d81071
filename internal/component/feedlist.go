package component

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/feed"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opSavedFeeds = "saved_feeds"

// feedSource adapts feed descriptors to fuzzy matching
type feedSource []types.FeedDescriptor

func (s feedSource) String(i int) string {
	return s[i].Title() + " " + s[i].Creator
}

func (s feedSource) Len() int {
	return len(s)
}

// feedState is the cached state of one feed in the list
type feedState struct {
	timeline *feed.Timeline
	unread   int
	received bool // at least one update arrived
	dead     bool // watcher stopped after a crash
}

// FeedList shows the saved feeds with live unread counts
type FeedList struct {
	env Env

	feeds   []types.FeedDescriptor      // saved order
	state   map[types.FeedID]*feedState // FeedID -> cached posts
	loading bool
	loadErr string

	sel       selection
	filtering bool
	query     *buffer
	visible   []int // indices into feeds matching the query

	notice      string
	noticeStyle widget.Style
}

func NewFeedList(env Env) *FeedList {
	return &FeedList{
		env:   env,
		state: make(map[types.FeedID]*feedState),
		query: newLineBuffer(""),
	}
}

func (f *FeedList) Kind() action.Kind { return action.KindFeedList }

func (f *FeedList) Mode() keybinds.Mode {
	if f.filtering {
		return keybinds.ModeFilter
	}
	return keybinds.ModeFeedList
}

func (f *FeedList) Activate() []action.Action {
	f.loading = true
	network := f.env.Network
	f.env.Tasks.Go(opSavedFeeds, func(ctx context.Context) (any, error) {
		return network.SavedFeeds(ctx)
	})
	return nil
}

func (f *FeedList) Deactivate() []action.Action {
	actions := make([]action.Action, 0, len(f.feeds))
	for _, d := range f.feeds {
		actions = append(actions, action.Unsubscribe{Feed: d.ID()})
	}
	return actions
}

func (f *FeedList) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.TaskDone:
		if a.Result.Op != opSavedFeeds {
			return action.Ignored()
		}
		return f.loaded(a.Result)

	case action.FeedUpdated:
		st, ok := f.state[a.Feed]
		if !ok {
			return action.Ignored()
		}
		added := st.timeline.Merge(a.Posts)
		if st.received {
			st.unread += added
		}
		st.received = true
		return action.Consumed()

	case action.Error:
		st, ok := f.state[a.Feed]
		if !ok || a.Kind != action.Fatal {
			return action.Ignored()
		}
		st.dead = true
		return action.Consumed()

	case action.KeyInput:
		if !f.filtering {
			return action.Ignored()
		}
		f.query.Insert(a.Key.Runes)
		f.applyFilter()
		return action.Consumed()

	case action.Command:
		if f.filtering {
			return f.handleFilter(a.Name)
		}
		return f.handleCommand(a.Name)
	}
	return action.Ignored()
}

func (f *FeedList) loaded(res action.Result) action.Outcome {
	f.loading = false
	if res.Err != nil {
		f.loadErr = res.Err.Error()
		return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to load feeds: %v", res.Err)})
	}

	feeds, _ := res.Value.([]types.FeedDescriptor)
	f.feeds = feeds
	f.loadErr = ""
	f.applyFilter()

	subs := make([]action.Action, 0, len(feeds))
	for _, d := range feeds {
		if _, ok := f.state[d.ID()]; ok {
			continue
		}
		f.state[d.ID()] = &feedState{timeline: feed.NewTimeline()}
		subs = append(subs, action.Subscribe{
			Feed:      d,
			Interval:  f.env.Settings.Intervals.FeedList,
			Immediate: true,
		})
	}
	return action.Propagate(subs...)
}

func (f *FeedList) handleCommand(cmd keybinds.Action) action.Outcome {
	if f.sel.Move(cmd, len(f.visible)) {
		return action.Consumed()
	}

	switch cmd {
	case keybinds.ActionSelect:
		d, ok := f.selected()
		if !ok {
			return action.Consumed()
		}
		if st := f.state[d.ID()]; st != nil {
			st.unread = 0
		}
		return action.Propagate(action.NavigatePush{Kind: action.KindFeed, Params: action.Params{Feed: &d}})

	case keybinds.ActionRefresh:
		refresh := make([]action.Action, 0, len(f.feeds))
		for _, d := range f.feeds {
			refresh = append(refresh, action.Refresh{Feed: d.ID()})
		}
		return action.Propagate(refresh...)

	case keybinds.ActionFilter:
		f.filtering = true
		return action.Consumed()

	case keybinds.ActionPin:
		return f.pin()

	case keybinds.ActionBack:
		if f.query.String() != "" {
			f.query.Set("")
			f.applyFilter()
			return action.Consumed()
		}
	}
	return action.Ignored()
}

func (f *FeedList) handleFilter(cmd keybinds.Action) action.Outcome {
	switch cmd {
	case keybinds.ActionSubmit:
		f.filtering = false
		return action.Consumed()
	case keybinds.ActionBack:
		f.filtering = false
		f.query.Set("")
		f.applyFilter()
		return action.Consumed()
	}
	if f.sel.Move(cmd, len(f.visible)) {
		return action.Consumed()
	}
	if f.query.Edit(cmd) {
		f.applyFilter()
		return action.Consumed()
	}
	return action.Ignored()
}

// applyFilter recomputes the visible feeds for the current query
func (f *FeedList) applyFilter() {
	q := f.query.String()
	f.visible = f.visible[:0]
	if q == "" {
		for i := range f.feeds {
			f.visible = append(f.visible, i)
		}
	} else {
		for _, m := range fuzzy.FindFrom(q, feedSource(f.feeds)) {
			f.visible = append(f.visible, m.Index)
		}
	}
	f.sel.Clamp(len(f.visible))
}

func (f *FeedList) selected() (types.FeedDescriptor, bool) {
	if !f.sel.Valid(len(f.visible)) {
		return types.FeedDescriptor{}, false
	}
	return f.feeds[f.visible[f.sel.index]], true
}

func (f *FeedList) pin() action.Outcome {
	d, ok := f.selected()
	if !ok {
		return action.Consumed()
	}
	if f.env.Store == nil {
		f.notice, f.noticeStyle = "pinning needs the local database", widget.StyleWarning
		return action.Consumed()
	}

	ctx, cancel := f.env.storeContext()
	defer cancel()
	if err := f.env.Store.PinFeed(ctx, d); err != nil {
		return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to pin %s: %v", d.Title(), err)})
	}
	f.notice, f.noticeStyle = "pinned "+d.Title(), widget.StyleSuccess
	return action.Consumed()
}

// Unread returns the unread count of a feed
func (f *FeedList) Unread(id types.FeedID) int {
	if st := f.state[id]; st != nil {
		return st.unread
	}
	return 0
}

func (f *FeedList) Render(width, height int) widget.Tree {
	tree := widget.Tree{
		Title:       "Feeds",
		Notice:      f.notice,
		NoticeStyle: f.noticeStyle,
		Hints: []keybinds.Action{
			keybinds.ActionSelect, keybinds.ActionFilter, keybinds.ActionPin,
			keybinds.ActionRefresh, keybinds.ActionBack,
		},
	}

	if f.loading {
		tree.Body = widget.Spinner{Label: "loading saved feeds..."}
		return tree
	}
	if f.loadErr != "" && len(f.feeds) == 0 {
		tree.Body = widget.Paragraph(widget.StyleError, "could not load feeds: "+f.loadErr)
		return tree
	}

	list := widget.List{Selected: f.sel.index, Empty: "no saved feeds"}
	if f.query.String() != "" {
		list.Empty = "no feed matches"
	}
	now := f.env.now()
	for _, i := range f.visible {
		d := f.feeds[i]
		list.Items = append(list.Items, f.item(now, d))
	}

	var children []widget.Node
	if f.filtering || f.query.String() != "" {
		children = append(children, widget.Form{Fields: []widget.Field{{
			Label:   "/",
			Value:   f.query.String(),
			Cursor:  f.query.Cursor(),
			Focused: f.filtering,
		}}})
	}
	tree.Body = widget.Column{Children: append(children, list)}
	return tree
}

func (f *FeedList) item(now time.Time, d types.FeedDescriptor) widget.Item {
	st := f.state[d.ID()]

	header := []widget.Span{{Text: d.Title(), Style: widget.StyleTitle}}
	if d.Pinned {
		header = append(header, widget.Span{Text: " ★", Style: widget.StyleAccent})
	}
	if d.Creator != "" {
		header = append(header, widget.Span{Text: " by @" + d.Creator, Style: widget.StyleSubtle})
	}
	if st != nil && st.unread > 0 {
		header = append(header, widget.Span{Text: fmt.Sprintf(" (%d new)", st.unread), Style: widget.StyleAccent})
	}

	item := widget.Item{Lines: []widget.Line{{Spans: header}}}
	switch {
	case st == nil || !st.received:
		item.Lines = append(item.Lines, widget.Plain("loading...", widget.StyleSubtle))
	case st.dead:
		item.Dim = true
		item.Lines = append(item.Lines, widget.Plain("stopped updating", widget.StyleError))
	default:
		if p, ok := st.timeline.Newest(); ok {
			item.Lines = append(item.Lines, widget.Line{Spans: []widget.Span{
				{Text: p.Author.Name() + ": ", Style: widget.StyleSubtle},
				{Text: firstLine(p.Text)},
				{Text: " · " + ago(now, p.SortAt()), Style: widget.StyleSubtle},
			}})
		} else {
			item.Lines = append(item.Lines, widget.Plain("no posts", widget.StyleSubtle))
		}
	}
	return item
}
