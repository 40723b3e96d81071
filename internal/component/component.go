// Package component holds the screens of skycli. Each component owns its
// view state, turns Actions into Outcomes and describes itself as a
// widget.Tree. Components never run concurrently: the app shell calls them
// from the event loop only, and anything slow runs as a detached task whose
// result comes back as an action.TaskDone.
package component

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/config"
	"github.com/studiowebux/skycli/internal/feed"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/store"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

// Component is one screen on the navigation stack
type Component interface {
	Kind() action.Kind
	// Mode selects the keymap; text input modes also receive unbound printable keys
	Mode() keybinds.Mode
	// Activate runs once when the component is pushed. The returned actions
	// are handled by the shell as if propagated.
	Activate() []action.Action
	// Deactivate runs once when the component is popped, before it is discarded
	Deactivate() []action.Action
	Handle(a action.Action) action.Outcome
	Render(width, height int) widget.Tree
}

// Network is the part of the Bluesky client components use
type Network interface {
	Authenticate(ctx context.Context, creds types.Credentials) (session.Data, error)
	SavedFeeds(ctx context.Context) ([]types.FeedDescriptor, error)
	Thread(ctx context.Context, uri string) (types.Thread, error)
	CreatePost(ctx context.Context, draft types.Draft) (types.PostRef, error)
	React(ctx context.Context, kind types.ReactionKind, subject types.PostRef) (types.PostRef, error)
	// FeedViewPreferences returns the account's following timeline preferences
	FeedViewPreferences(ctx context.Context) (feed.Preferences, error)
}

// Store is the local persistence components use. It may be nil.
type Store interface {
	PinFeed(ctx context.Context, feed types.FeedDescriptor) error
	UnpinFeed(ctx context.Context, id types.FeedID) error
	PinnedFeeds(ctx context.Context) ([]types.FeedDescriptor, error)
	SaveDraft(ctx context.Context, key string, d types.Draft) error
	LoadDraft(ctx context.Context, key string) (types.Draft, bool, error)
	DeleteDraft(ctx context.Context, key string) error
	RecordSent(ctx context.Context, p store.SentPost) error
}

// Tasks runs detached work for one frame. The result is delivered back to
// the frame as an action.TaskDone carrying op.
type Tasks interface {
	Go(op string, fn func(ctx context.Context) (any, error))
}

// Env is the shared context handed to every component constructor
type Env struct {
	Session   *session.Session
	Settings  config.Settings
	Network   Network
	Store     Store
	Tasks     Tasks
	Clipboard func(text string) error
	Now       func() time.Time
	Logger    *slog.Logger
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeTimeout bounds local database calls made from the event loop
const storeTimeout = 2 * time.Second

func (e Env) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// New constructs the component for kind
func New(kind action.Kind, params action.Params, env Env) (Component, error) {
	switch kind {
	case action.KindLogin:
		return NewLogin(env, params.Logout), nil
	case action.KindMenu:
		return NewMenu(env), nil
	case action.KindFeedList:
		return NewFeedList(env), nil
	case action.KindPinned:
		return NewPinnedList(env), nil
	case action.KindFeed:
		feed := types.Timeline()
		if params.Feed != nil {
			feed = *params.Feed
		}
		return NewFeed(env, feed), nil
	case action.KindPost:
		if params.Post == nil {
			return nil, fmt.Errorf("post view needs a post")
		}
		return NewPost(env, *params.Post), nil
	case action.KindComposer:
		return NewComposer(env, params.ReplyTo, params.Root, params.Quote), nil
	default:
		return nil, fmt.Errorf("unknown component kind %q", kind)
	}
}
