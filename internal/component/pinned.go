package component

import (
	"context"
	"fmt"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opPinned = "pinned_feeds"

// PinnedList shows the feeds pinned in the local database
type PinnedList struct {
	env     Env
	feeds   []types.FeedDescriptor
	loading bool
	sel     selection

	notice      string
	noticeStyle widget.Style
}

func NewPinnedList(env Env) *PinnedList {
	return &PinnedList{env: env}
}

func (p *PinnedList) Kind() action.Kind           { return action.KindPinned }
func (p *PinnedList) Mode() keybinds.Mode         { return keybinds.ModePinned }
func (p *PinnedList) Deactivate() []action.Action { return nil }

func (p *PinnedList) Activate() []action.Action {
	if p.env.Store == nil {
		return nil
	}
	p.loading = true
	st := p.env.Store
	p.env.Tasks.Go(opPinned, func(ctx context.Context) (any, error) {
		return st.PinnedFeeds(ctx)
	})
	return nil
}

func (p *PinnedList) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.TaskDone:
		if a.Result.Op != opPinned {
			return action.Ignored()
		}
		p.loading = false
		if a.Result.Err != nil {
			return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to load pinned feeds: %v", a.Result.Err)})
		}
		p.feeds, _ = a.Result.Value.([]types.FeedDescriptor)
		p.sel.Clamp(len(p.feeds))
		return action.Consumed()

	case action.Command:
		if p.sel.Move(a.Name, len(p.feeds)) {
			return action.Consumed()
		}
		switch a.Name {
		case keybinds.ActionSelect:
			if !p.sel.Valid(len(p.feeds)) {
				return action.Consumed()
			}
			d := p.feeds[p.sel.index]
			return action.Propagate(action.NavigatePush{Kind: action.KindFeed, Params: action.Params{Feed: &d}})
		case keybinds.ActionUnpin:
			return p.unpin()
		}
	}
	return action.Ignored()
}

func (p *PinnedList) unpin() action.Outcome {
	if !p.sel.Valid(len(p.feeds)) || p.env.Store == nil {
		return action.Consumed()
	}
	d := p.feeds[p.sel.index]

	ctx, cancel := p.env.storeContext()
	defer cancel()
	if err := p.env.Store.UnpinFeed(ctx, d.ID()); err != nil {
		return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to unpin %s: %v", d.Title(), err)})
	}

	p.feeds = append(p.feeds[:p.sel.index:p.sel.index], p.feeds[p.sel.index+1:]...)
	p.sel.Clamp(len(p.feeds))
	p.notice, p.noticeStyle = "unpinned "+d.Title(), widget.StyleSuccess
	return action.Consumed()
}

func (p *PinnedList) Render(width, height int) widget.Tree {
	tree := widget.Tree{
		Title:       "Pinned",
		Notice:      p.notice,
		NoticeStyle: p.noticeStyle,
		Hints:       []keybinds.Action{keybinds.ActionSelect, keybinds.ActionUnpin, keybinds.ActionBack},
	}

	switch {
	case p.env.Store == nil:
		tree.Body = widget.Paragraph(widget.StyleWarning, "pinned feeds need the local database")
	case p.loading:
		tree.Body = widget.Spinner{Label: "loading pinned feeds..."}
	default:
		list := widget.List{Selected: p.sel.index, Empty: "no pinned feeds, press p in the feed list to pin one"}
		for _, d := range p.feeds {
			lines := []widget.Line{widget.Plain(d.Title(), widget.StyleTitle)}
			if d.Description != "" {
				lines = append(lines, widget.Wrapped(firstLine(d.Description), widget.StyleSubtle))
			}
			list.Items = append(list.Items, widget.Item{Lines: lines})
		}
		tree.Body = list
	}
	return tree
}
