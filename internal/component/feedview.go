package component

import (
	"context"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/feed"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opViewPrefs = "feed_view_prefs"

// Feed shows one live feed
type Feed struct {
	env      Env
	desc     types.FeedDescriptor
	timeline *feed.Timeline
	filter   *feed.Filter

	sel      selection
	selected string // URI of the selected post, kept across merges
	received bool
	dead     bool

	notice      string
	noticeStyle widget.Style
}

// NewFeed creates the view of one feed. View preferences apply to the
// following timeline; a JMESPath filter from the settings applies to any feed.
func NewFeed(env Env, desc types.FeedDescriptor) *Feed {
	f := &Feed{env: env, desc: desc, timeline: feed.NewTimeline()}

	var prefs feed.Preferences
	if desc.Kind == types.FeedTimeline {
		prefs = env.Settings.Preferences
	}
	filter, err := feed.NewFilter(prefs, env.Settings.Filter(string(desc.ID())))
	if err != nil {
		env.logger().Warn("ignoring feed filter", "feed", desc.ID(), "error", err)
		filter, _ = feed.NewFilter(prefs, "")
	}
	f.filter = filter
	return f
}

func (f *Feed) Kind() action.Kind   { return action.KindFeed }
func (f *Feed) Mode() keybinds.Mode { return keybinds.ModeFeed }

// Descriptor returns the feed shown
func (f *Feed) Descriptor() types.FeedDescriptor {
	return f.desc
}

func (f *Feed) Activate() []action.Action {
	if f.desc.Kind == types.FeedTimeline && f.env.Network != nil {
		network := f.env.Network
		f.env.Tasks.Go(opViewPrefs, func(ctx context.Context) (any, error) {
			return network.FeedViewPreferences(ctx)
		})
	}
	return []action.Action{action.Subscribe{
		Feed:      f.desc,
		Interval:  f.env.Settings.Intervals.Feed,
		Immediate: true,
	}}
}

func (f *Feed) Deactivate() []action.Action {
	return []action.Action{action.Unsubscribe{Feed: f.desc.ID()}}
}

// Posts returns the visible posts, newest first
func (f *Feed) Posts() []types.PostSummary {
	return f.timeline.Visible(f.filter)
}

func (f *Feed) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.FeedUpdated:
		if a.Feed != f.desc.ID() {
			return action.Ignored()
		}
		f.timeline.Merge(a.Posts)
		f.received = true
		f.restoreSelection()
		return action.Consumed()

	case action.Error:
		if a.Feed != f.desc.ID() || a.Kind != action.Fatal {
			return action.Ignored()
		}
		f.dead = true
		return action.Consumed()

	case action.TaskDone:
		if a.Result.Op == opViewPrefs {
			f.applyServerPreferences(a.Result)
			return action.Consumed()
		}
		if a.Result.Op != opReact {
			return action.Ignored()
		}
		r, failed := finishReaction(a.Result)
		if failed != nil {
			return action.Propagate(failed)
		}
		if current, ok := f.timeline.Get(r.post.URI); ok {
			f.timeline.Update(r.apply(current))
		}
		f.notice, f.noticeStyle = reactionNotice(r.kind), widget.StyleSuccess
		return action.Consumed()

	case action.Command:
		return f.handleCommand(a.Name)
	}
	return action.Ignored()
}

// applyServerPreferences merges the account's timeline preferences into the
// local ones. Without them the local preferences keep applying.
func (f *Feed) applyServerPreferences(res action.Result) {
	if res.Err != nil {
		f.env.logger().Warn("failed to load feed view preferences", "error", res.Err)
		return
	}
	server, ok := res.Value.(feed.Preferences)
	if !ok {
		return
	}
	prefs := f.env.Settings.Preferences.Merge(server)
	filter, err := feed.NewFilter(prefs, f.filter.Expression())
	if err != nil {
		return
	}
	f.filter = filter
	f.restoreSelection()
}

func (f *Feed) handleCommand(cmd keybinds.Action) action.Outcome {
	posts := f.Posts()
	if f.sel.Move(cmd, len(posts)) {
		f.rememberSelection(posts)
		return action.Consumed()
	}

	switch cmd {
	case keybinds.ActionRefresh:
		return action.Propagate(action.Refresh{Feed: f.desc.ID()})
	case keybinds.ActionCompose:
		return action.Propagate(action.NavigatePush{Kind: action.KindComposer})
	}

	if !f.sel.Valid(len(posts)) {
		return action.Ignored()
	}
	p := posts[f.sel.index]

	switch cmd {
	case keybinds.ActionSelect:
		return action.Propagate(action.NavigatePush{Kind: action.KindPost, Params: action.Params{Post: &p}})
	case keybinds.ActionLike, keybinds.ActionRepost:
		if msg := startReaction(f.env, cmd, p); msg != "" {
			f.notice, f.noticeStyle = msg, widget.StyleWarning
		}
		return action.Consumed()
	case keybinds.ActionYank:
		msg, failed := yank(f.env, p)
		if failed != nil {
			return action.Propagate(failed)
		}
		f.notice, f.noticeStyle = msg, widget.StyleSuccess
		return action.Consumed()
	}
	return action.Ignored()
}

func (f *Feed) rememberSelection(posts []types.PostSummary) {
	if f.sel.Valid(len(posts)) {
		f.selected = posts[f.sel.index].URI
	}
}

// restoreSelection keeps the cursor on the same post after new posts arrive above it
func (f *Feed) restoreSelection() {
	posts := f.Posts()
	if f.selected != "" {
		for i, p := range posts {
			if p.URI == f.selected {
				f.sel.index = i
				return
			}
		}
	}
	f.sel.Clamp(len(posts))
	f.rememberSelection(posts)
}

func (f *Feed) Render(width, height int) widget.Tree {
	tree := widget.Tree{
		Title:       f.desc.Title(),
		Notice:      f.notice,
		NoticeStyle: f.noticeStyle,
		Hints: []keybinds.Action{
			keybinds.ActionSelect, keybinds.ActionLike, keybinds.ActionRepost,
			keybinds.ActionCompose, keybinds.ActionRefresh, keybinds.ActionBack,
		},
	}
	if f.dead {
		tree.Notice, tree.NoticeStyle = "this feed stopped updating", widget.StyleError
	}

	if !f.received {
		tree.Body = widget.Spinner{Label: "loading " + f.desc.Title() + "..."}
		return tree
	}

	now := f.env.now()
	list := widget.List{Selected: f.sel.index, Empty: "nothing here yet"}
	for _, p := range f.Posts() {
		item := postItem(now, p)
		item.Dim = f.dead
		list.Items = append(list.Items, item)
	}
	tree.Body = list
	return tree
}
