package component

import (
	"context"
	"fmt"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/bsky"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
)

const opReact = "react"

// reaction is the value of a finished react task
type reaction struct {
	kind types.ReactionKind
	post types.PostSummary
	ref  types.PostRef
}

// startReaction runs a like or repost as a detached task. It returns a
// notice when the reaction is not sent.
func startReaction(env Env, cmd keybinds.Action, post types.PostSummary) string {
	kind := types.ReactionLike
	if cmd == keybinds.ActionRepost {
		kind = types.ReactionRepost
	}

	switch {
	case kind == types.ReactionLike && post.Viewer.Like != "":
		return "already liked"
	case kind == types.ReactionRepost && post.Viewer.Repost != "":
		return "already reposted"
	}

	network := env.Network
	env.Tasks.Go(opReact, func(ctx context.Context) (any, error) {
		ref, err := network.React(ctx, kind, post.Ref())
		if err != nil {
			return nil, err
		}
		return reaction{kind: kind, post: post, ref: ref}, nil
	})
	return ""
}

// finishReaction reads a react result. On failure it returns the error to propagate.
func finishReaction(res action.Result) (reaction, action.Action) {
	if res.Err != nil {
		return reaction{}, action.Error{
			Kind:    action.Transient,
			Message: fmt.Sprintf("reaction failed: %v", res.Err),
		}
	}
	r, _ := res.Value.(reaction)
	return r, nil
}

// apply records the reaction on the current copy of the post
func (r reaction) apply(p types.PostSummary) types.PostSummary {
	switch r.kind {
	case types.ReactionLike:
		if p.Viewer.Like == "" {
			p.LikeCount++
		}
		p.Viewer.Like = r.ref.URI
	case types.ReactionRepost:
		if p.Viewer.Repost == "" {
			p.RepostCount++
		}
		p.Viewer.Repost = r.ref.URI
	}
	return p
}

// reactionNotice is the confirmation shown after a reaction
func reactionNotice(kind types.ReactionKind) string {
	if kind == types.ReactionRepost {
		return "reposted"
	}
	return "liked"
}

// yank copies the web link of a post to the clipboard
func yank(env Env, p types.PostSummary) (string, action.Action) {
	if env.Clipboard == nil {
		return "clipboard unavailable", nil
	}
	link := bsky.WebURL(p.URI, p.Author.Handle)
	if err := env.Clipboard(link); err != nil {
		env.logger().Warn("clipboard write failed", "error", err)
		return "", action.Error{Kind: action.Transient, Message: fmt.Sprintf("failed to copy link: %v", err)}
	}
	return "copied " + link, nil
}
