// Package action defines the messages that flow through skycli: every key
// press, watcher update, task completion and navigation request is an Action
// consumed by the single event loop.
package action

import (
	"fmt"
	"time"

	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
)

// Action is the sealed set of messages dispatched by the app shell.
// Actions are immutable values.
type Action interface {
	isAction()
}

// Kind names a component variant
type Kind string

const (
	KindLogin    Kind = "login"
	KindMenu     Kind = "menu"
	KindFeedList Kind = "feed_list"
	KindPinned   Kind = "pinned"
	KindFeed     Kind = "feed"
	KindPost     Kind = "post"
	KindComposer Kind = "composer"
)

// Params carries the construction arguments of a component.
// Each Kind reads only the fields it needs.
type Params struct {
	// Feed is the feed shown by KindFeed
	Feed *types.FeedDescriptor
	// Post is the post shown by KindPost
	Post *types.PostSummary
	// ReplyTo, Root and Quote seed KindComposer. Root is the thread root when known.
	ReplyTo *types.PostSummary
	Root    *types.PostSummary
	Quote   *types.PostSummary
	// Logout makes KindLogin clear the stored session on activation
	Logout bool
}

// ErrorKind classifies an Error action
type ErrorKind int

const (
	// Transient errors are shown in a dismissible banner; the operation may be retried
	Transient ErrorKind = iota
	// Fatal errors end the affected feed or the session
	Fatal
	// Validation errors stay inside the component that found them
	Validation
	// Auth errors come from a rejected login
	Auth
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Quit stops the application
type Quit struct{}

// NavigatePush constructs a component and puts it on top of the stack
type NavigatePush struct {
	Kind   Kind
	Params Params
}

// NavigatePop removes the top component; popping the last one quits
type NavigatePop struct{}

// NavigateReplace pops the top component and pushes a new one in a single step
type NavigateReplace struct {
	Kind   Kind
	Params Params
}

// KeyInput is a key that no binding claimed, delivered to text input modes
type KeyInput struct {
	Key keybinds.Key
}

// Command is a key binding resolved to an action name
type Command struct {
	Name keybinds.Action
}

// FeedUpdated carries the posts of one successful poll
type FeedUpdated struct {
	Feed   types.FeedID
	Posts  []types.PostSummary
	Cursor types.Cursor
	Sub    Handle
}

// Submit asks the active form to submit. Payload is optional extra input.
type Submit struct {
	Payload string
}

// Error reports a failure to the shell
type Error struct {
	Kind    ErrorKind
	Message string
	// Feed is set when the error belongs to one feed subscription
	Feed types.FeedID
	// Sub is the subscription that failed, zero when not from the watcher
	Sub Handle
	// SessionLost means the session can no longer be used
	SessionLost bool
}

// Subscribe asks the shell to start polling a feed for the requesting frame
type Subscribe struct {
	Feed     types.FeedDescriptor
	Interval time.Duration
	// Immediate triggers a first fetch right away instead of after Interval
	Immediate bool
}

// Unsubscribe stops polling a feed for the requesting frame
type Unsubscribe struct {
	Feed types.FeedID
}

// Refresh asks the watcher to fetch a feed now
type Refresh struct {
	Feed types.FeedID
}

// Dismiss clears the banner
type Dismiss struct{}

// Result is the outcome of a detached task
type Result struct {
	Op    string
	Value any
	Err   error
}

// TaskDone delivers a Result to the frame that started the task
type TaskDone struct {
	Frame  FrameID
	Result Result
}

func (Quit) isAction()            {}
func (NavigatePush) isAction()    {}
func (NavigatePop) isAction()     {}
func (NavigateReplace) isAction() {}
func (KeyInput) isAction()        {}
func (Command) isAction()         {}
func (FeedUpdated) isAction()     {}
func (Submit) isAction()          {}
func (Error) isAction()           {}
func (Subscribe) isAction()       {}
func (Unsubscribe) isAction()     {}
func (Refresh) isAction()         {}
func (Dismiss) isAction()         {}
func (TaskDone) isAction()        {}

// Handle identifies one watcher subscription
type Handle uint64

// FrameID identifies one navigation stack entry for the lifetime of the process
type FrameID uint64

// Name returns a short label for logging
func Name(a Action) string {
	switch a := a.(type) {
	case Quit:
		return "quit"
	case NavigatePush:
		return "push:" + string(a.Kind)
	case NavigatePop:
		return "pop"
	case NavigateReplace:
		return "replace:" + string(a.Kind)
	case KeyInput:
		return "key"
	case Command:
		return "command:" + string(a.Name)
	case FeedUpdated:
		return "feed_updated:" + string(a.Feed)
	case Submit:
		return "submit"
	case Error:
		return "error:" + a.Kind.String()
	case Subscribe:
		return "subscribe:" + string(a.Feed.ID())
	case Unsubscribe:
		return "unsubscribe:" + string(a.Feed)
	case Refresh:
		return "refresh:" + string(a.Feed)
	case Dismiss:
		return "dismiss"
	case TaskDone:
		return "task_done:" + a.Result.Op
	default:
		return fmt.Sprintf("%T", a)
	}
}
