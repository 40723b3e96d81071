package component

import (
	"context"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/store"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opCreatePost = "create_post"

// MaxPostGraphemes is the post length limit of the Bluesky lexicon
const MaxPostGraphemes = 300

// Composer edits and publishes a post, optionally replying to or quoting another
type Composer struct {
	env     Env
	replyTo *types.PostSummary
	root    *types.PostSummary
	quote   *types.PostSummary

	text      *buffer
	busy      bool
	submitted bool

	notice      string
	noticeStyle widget.Style
}

func NewComposer(env Env, replyTo, root, quote *types.PostSummary) *Composer {
	return &Composer{env: env, replyTo: replyTo, root: root, quote: quote, text: newTextBuffer()}
}

func (c *Composer) Kind() action.Kind   { return action.KindComposer }
func (c *Composer) Mode() keybinds.Mode { return keybinds.ModeComposer }

// Text returns the current content
func (c *Composer) Text() string {
	return c.text.String()
}

// draftKey identifies the context a draft belongs to
func (c *Composer) draftKey() string {
	switch {
	case c.replyTo != nil:
		return "reply:" + c.replyTo.URI
	case c.quote != nil:
		return "quote:" + c.quote.URI
	default:
		return "new"
	}
}

func (c *Composer) Activate() []action.Action {
	if c.env.Store == nil {
		return nil
	}
	ctx, cancel := c.env.storeContext()
	defer cancel()

	d, ok, err := c.env.Store.LoadDraft(ctx, c.draftKey())
	if err != nil {
		c.env.logger().Warn("failed to load draft", "key", c.draftKey(), "error", err)
		return nil
	}
	if ok {
		c.text.Set(d.Text)
		c.notice, c.noticeStyle = "draft restored", widget.StyleSubtle
	}
	return nil
}

// Deactivate keeps unsent text as a draft. Text already handed to the
// network is not kept, whether or not the post lands.
func (c *Composer) Deactivate() []action.Action {
	if c.env.Store == nil || c.submitted || c.busy {
		return nil
	}
	ctx, cancel := c.env.storeContext()
	defer cancel()

	var err error
	if strings.TrimSpace(c.Text()) == "" {
		err = c.env.Store.DeleteDraft(ctx, c.draftKey())
	} else {
		err = c.env.Store.SaveDraft(ctx, c.draftKey(), c.draft())
	}
	if err != nil {
		c.env.logger().Warn("failed to save draft", "key", c.draftKey(), "error", err)
		return []action.Action{action.Error{Kind: action.Transient, Message: fmt.Sprintf("draft not saved: %v", err)}}
	}
	return nil
}

func (c *Composer) draft() types.Draft {
	text := c.Text()
	d := types.Draft{Text: text, Facets: DetectFacets(text)}
	if c.replyTo != nil {
		parent := c.replyTo.Ref()
		d.ReplyTo = &parent
		root := parent
		if c.root != nil {
			root = c.root.Ref()
		}
		d.Root = &root
	}
	if c.quote != nil {
		q := c.quote.Ref()
		d.Quote = &q
	}
	return d
}

func (c *Composer) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.KeyInput:
		if c.busy {
			return action.Consumed()
		}
		c.text.Insert(a.Key.Runes)
		return action.Consumed()

	case action.Submit:
		return c.submit()

	case action.Command:
		switch a.Name {
		case keybinds.ActionSubmit:
			return c.submit()
		case keybinds.ActionNoOp:
			return action.Consumed()
		case keybinds.ActionBack:
			if c.busy {
				c.notice, c.noticeStyle = "posting, wait for the result", widget.StyleSubtle
				return action.Consumed()
			}
		}
		if !c.busy && c.text.Edit(a.Name) {
			return action.Consumed()
		}
		return action.Ignored()

	case action.TaskDone:
		if a.Result.Op != opCreatePost {
			return action.Ignored()
		}
		return c.finish(a.Result)
	}
	return action.Ignored()
}

// validate returns the local error for the current text, or ""
func (c *Composer) validate() string {
	text := c.Text()
	if strings.TrimSpace(text) == "" {
		return "post is empty"
	}
	if n := uniseg.GraphemeClusterCount(text); n > MaxPostGraphemes {
		return fmt.Sprintf("post is %d characters, the limit is %d", n, MaxPostGraphemes)
	}
	return ""
}

func (c *Composer) submit() action.Outcome {
	if c.busy {
		return action.Consumed()
	}
	if msg := c.validate(); msg != "" {
		c.notice, c.noticeStyle = msg, widget.StyleError
		return action.Consumed()
	}

	c.busy = true
	c.notice = ""
	draft := c.draft()
	network := c.env.Network
	c.env.Tasks.Go(opCreatePost, func(ctx context.Context) (any, error) {
		return network.CreatePost(ctx, draft)
	})
	return action.Consumed()
}

func (c *Composer) finish(res action.Result) action.Outcome {
	c.busy = false
	if res.Err != nil {
		c.notice, c.noticeStyle = "not posted, your text is kept", widget.StyleWarning
		return action.Propagate(action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to post: %v", res.Err)})
	}

	c.submitted = true
	ref, _ := res.Value.(types.PostRef)
	c.env.logger().Info("post created", "uri", ref.URI)

	if c.env.Store != nil {
		ctx, cancel := c.env.storeContext()
		defer cancel()

		sent := store.SentPost{URI: ref.URI, CID: ref.CID, Text: c.Text(), CreatedAt: c.env.now()}
		if c.replyTo != nil {
			sent.ReplyTo = c.replyTo.URI
		}
		if err := c.env.Store.RecordSent(ctx, sent); err != nil {
			c.env.logger().Warn("failed to record sent post", "error", err)
		}
		if err := c.env.Store.DeleteDraft(ctx, c.draftKey()); err != nil {
			c.env.logger().Warn("failed to delete draft", "error", err)
		}
	}
	return action.Propagate(action.NavigatePop{})
}

func (c *Composer) Render(width, height int) widget.Tree {
	now := c.env.now()
	title := "New post"
	var children []widget.Node

	switch {
	case c.replyTo != nil:
		title = "Reply to @" + c.replyTo.Author.Handle
		lines := []widget.Line{authorLine(now, *c.replyTo)}
		lines = append(lines, textLines(c.replyTo.Text, c.replyTo.Facets)...)
		children = append(children, widget.Box{Title: "replying to", Child: widget.Text{Lines: lines}})
	case c.quote != nil:
		title = "Quote @" + c.quote.Author.Handle
	}

	text := c.Text()
	facets := DetectFacets(text)
	raw, x, y := c.text.Lines()
	editor := widget.Editor{CursorX: x, CursorY: y}
	offset := 0
	for _, l := range raw {
		editor.Lines = append(editor.Lines, widget.Line{Spans: highlight(l, offset, facets), Wrap: true})
		offset += len(l) + 1
	}
	n := uniseg.GraphemeClusterCount(text)
	editor.Counter = fmt.Sprintf("%d/%d", n, MaxPostGraphemes)
	editor.Over = n > MaxPostGraphemes
	children = append(children, widget.Box{Title: title, Child: editor, Focused: !c.busy})

	if c.quote != nil {
		lines := []widget.Line{authorLine(now, *c.quote)}
		lines = append(lines, textLines(c.quote.Text, c.quote.Facets)...)
		children = append(children, widget.Box{Title: "quoting", Child: widget.Text{Lines: lines}})
	}
	if c.busy {
		children = append(children, widget.Spinner{Label: "posting..."})
	}

	return widget.Tree{
		Title:       title,
		Body:        widget.Column{Children: children},
		Notice:      c.notice,
		NoticeStyle: c.noticeStyle,
		Hints:       []keybinds.Action{keybinds.ActionSubmit, keybinds.ActionBack},
	}
}
