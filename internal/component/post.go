package component

import (
	"context"
	"fmt"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opThread = "thread"

// Post shows one post with its parent, embeds and replies
type Post struct {
	env     Env
	post    types.PostSummary
	parents []types.PostSummary // oldest first
	replies []types.PostSummary
	loading bool

	sel selection // over replies

	notice      string
	noticeStyle widget.Style
}

func NewPost(env Env, post types.PostSummary) *Post {
	return &Post{env: env, post: post}
}

func (p *Post) Kind() action.Kind           { return action.KindPost }
func (p *Post) Mode() keybinds.Mode         { return keybinds.ModePost }
func (p *Post) Deactivate() []action.Action { return nil }

func (p *Post) Activate() []action.Action {
	p.loadThread()
	return nil
}

// Current returns the post shown, refreshed once the thread loads
func (p *Post) Current() types.PostSummary {
	return p.post
}

// Replies returns the direct replies of the post
func (p *Post) Replies() []types.PostSummary {
	return p.replies
}

func (p *Post) loadThread() {
	p.loading = true
	network := p.env.Network
	uri := p.post.URI
	p.env.Tasks.Go(opThread, func(ctx context.Context) (any, error) {
		return network.Thread(ctx, uri)
	})
}

// root is the thread root a reply to this post belongs to
func (p *Post) root() *types.PostSummary {
	if len(p.parents) == 0 {
		return nil
	}
	r := p.parents[0]
	return &r
}

func (p *Post) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.TaskDone:
		switch a.Result.Op {
		case opThread:
			return p.threadLoaded(a.Result)
		case opReact:
			r, failed := finishReaction(a.Result)
			if failed != nil {
				return action.Propagate(failed)
			}
			if r.post.URI == p.post.URI {
				p.post = r.apply(p.post)
			}
			p.notice, p.noticeStyle = reactionNotice(r.kind), widget.StyleSuccess
			return action.Consumed()
		}
		return action.Ignored()

	case action.Command:
		return p.handleCommand(a.Name)
	}
	return action.Ignored()
}

func (p *Post) threadLoaded(res action.Result) action.Outcome {
	p.loading = false
	if res.Err != nil {
		return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to load thread: %v", res.Err)})
	}
	thread, ok := res.Value.(types.Thread)
	if !ok {
		return action.Consumed()
	}

	reason := p.post.Reason
	p.post = thread.Post
	p.post.Reason = reason
	p.parents = thread.Parents
	p.replies = thread.Replies
	p.sel.Clamp(len(p.replies))
	return action.Consumed()
}

func (p *Post) handleCommand(cmd keybinds.Action) action.Outcome {
	if p.sel.Move(cmd, len(p.replies)) {
		return action.Consumed()
	}

	switch cmd {
	case keybinds.ActionLike, keybinds.ActionRepost:
		if msg := startReaction(p.env, cmd, p.post); msg != "" {
			p.notice, p.noticeStyle = msg, widget.StyleWarning
		}
		return action.Consumed()

	case keybinds.ActionReply:
		post := p.post
		return action.Propagate(action.NavigatePush{Kind: action.KindComposer, Params: action.Params{ReplyTo: &post, Root: p.root()}})

	case keybinds.ActionQuote:
		post := p.post
		return action.Propagate(action.NavigatePush{Kind: action.KindComposer, Params: action.Params{Quote: &post}})

	case keybinds.ActionYank:
		msg, failed := yank(p.env, p.post)
		if failed != nil {
			return action.Propagate(failed)
		}
		p.notice, p.noticeStyle = msg, widget.StyleSuccess
		return action.Consumed()

	case keybinds.ActionRefresh:
		if !p.loading {
			p.loadThread()
		}
		return action.Consumed()

	case keybinds.ActionSelect:
		if !p.sel.Valid(len(p.replies)) {
			return action.Consumed()
		}
		reply := p.replies[p.sel.index]
		return action.Propagate(action.NavigatePush{Kind: action.KindPost, Params: action.Params{Post: &reply}})
	}
	return action.Ignored()
}

func (p *Post) Render(width, height int) widget.Tree {
	now := p.env.now()

	var main []widget.Line
	if p.post.Reason != nil {
		main = append(main, widget.Plain("⟳ reposted by "+p.post.Reason.By.Name(), widget.StyleSuccess))
	}
	main = append(main, authorLine(now, p.post))
	main = append(main, textLines(p.post.Text, p.post.Facets)...)
	main = append(main, embedLines(now, p.post.Embed)...)
	main = append(main, countsLine(p.post))

	children := []widget.Node{}
	if parent := p.parent(); parent != nil {
		lines := []widget.Line{authorLine(now, *parent)}
		lines = append(lines, textLines(parent.Text, parent.Facets)...)
		children = append(children, widget.Box{Title: "in reply to", Child: widget.Text{Lines: lines}})
	}
	children = append(children, widget.Box{Child: widget.Text{Lines: main}, Focused: true})

	switch {
	case p.loading:
		children = append(children, widget.Spinner{Label: "loading replies..."})
	default:
		replies := widget.List{Selected: p.sel.index, Empty: "no replies"}
		for _, r := range p.replies {
			replies.Items = append(replies.Items, postItem(now, r))
		}
		children = append(children, widget.Box{Title: fmt.Sprintf("replies (%d)", len(p.replies)), Child: replies})
	}

	return widget.Tree{
		Title:       "Post",
		Body:        widget.Column{Children: children},
		Notice:      p.notice,
		NoticeStyle: p.noticeStyle,
		Hints: []keybinds.Action{
			keybinds.ActionLike, keybinds.ActionRepost, keybinds.ActionReply,
			keybinds.ActionQuote, keybinds.ActionYank, keybinds.ActionBack,
		},
	}
}

// parent is the post replied to, from the thread when loaded
func (p *Post) parent() *types.PostSummary {
	if len(p.parents) > 0 {
		last := p.parents[len(p.parents)-1]
		return &last
	}
	if p.post.Parent != nil && p.post.Parent.URI != "" {
		return p.post.Parent
	}
	return nil
}
