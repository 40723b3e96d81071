// Package app is the navigator of skycli: it owns the navigation stack,
// dispatches every Action to the right component and applies the
// navigation and subscription requests components propagate.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/component"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

// Watcher is the subscription API of the watcher subsystem
type Watcher interface {
	Subscribe(feed types.FeedDescriptor, interval time.Duration) action.Handle
	Unsubscribe(h action.Handle)
	Refresh(h action.Handle)
}

// Sink receives actions produced off the event loop
type Sink interface {
	Push(a action.Action)
}

// Factory constructs components
type Factory func(kind action.Kind, params action.Params, env component.Env) (component.Component, error)

// Option configures a Shell
type Option func(*Shell)

// WithFactory replaces the component constructor
func WithFactory(f Factory) Option {
	return func(s *Shell) {
		s.factory = f
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// Banner is the dismissible message shown above the footer
type Banner struct {
	Kind    action.ErrorKind
	Message string
	At      time.Time
}

type frame struct {
	id        action.FrameID
	component component.Component
	subs      map[types.FeedID]action.Handle // feeds this frame subscribed to
}

type owner struct {
	frame action.FrameID
	feed  types.FeedID
}

// item is an action waiting to be dispatched, with the frame that propagated it
type item struct {
	action action.Action
	from   action.FrameID
}

// Shell is the app shell. All methods except task completion run on the event loop.
type Shell struct {
	ctx     context.Context
	cancel  context.CancelFunc
	env     component.Env
	watcher Watcher
	sink    Sink
	factory Factory
	logger  *slog.Logger

	resolver *keybinds.Resolver

	stack   []*frame
	nextID  action.FrameID
	owners  map[action.Handle]owner
	pending []item

	banner   *Banner
	help     bool
	quitting bool

	tasks sync.WaitGroup
}

// New creates a shell. env is the shared context for components; its Tasks
// field is replaced per frame. Task results and errors are pushed to sink.
func New(ctx context.Context, env component.Env, keymap *keybinds.Keymap, w Watcher, sink Sink, opts ...Option) *Shell {
	s := &Shell{
		env:      env,
		watcher:  w,
		sink:     sink,
		factory:  component.New,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		resolver: keybinds.NewResolver(keymap, env.Settings.SequenceTimeout),
		owners:   make(map[action.Handle]owner),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	return s
}

// Start pushes the first screen: the menu with a stored session, the login otherwise
func (s *Shell) Start() {
	kind := action.KindLogin
	if s.env.Session.Valid() {
		kind = action.KindMenu
	}
	s.Dispatch(action.NavigatePush{Kind: kind})
}

// Quitting reports whether the application should exit
func (s *Shell) Quitting() bool {
	return s.quitting
}

// Depth returns the number of frames on the stack
func (s *Shell) Depth() int {
	return len(s.stack)
}

// Kinds returns the component kinds on the stack, bottom first
func (s *Shell) Kinds() []action.Kind {
	kinds := make([]action.Kind, 0, len(s.stack))
	for _, f := range s.stack {
		kinds = append(kinds, f.component.Kind())
	}
	return kinds
}

// Top returns the focused component, or nil before Start
func (s *Shell) Top() component.Component {
	if f := s.top(); f != nil {
		return f.component
	}
	return nil
}

// Banner returns the current banner, or nil
func (s *Shell) Banner() *Banner {
	return s.banner
}

// Mode is the keymap mode of the focused component
func (s *Shell) Mode() keybinds.Mode {
	if c := s.Top(); c != nil {
		return c.Mode()
	}
	return keybinds.ModeGlobal
}

// Keymap returns the keymap keys are resolved with
func (s *Shell) Keymap() *keybinds.Keymap {
	return s.resolver.Keymap()
}

// HandleKey resolves a key press and dispatches the result. Unbound
// printable keys reach text input modes as KeyInput.
func (s *Shell) HandleKey(key keybinds.Key, now time.Time) {
	mode := s.Mode()

	if key.Paste {
		s.resolver.Reset()
		if mode.IsTextInput() {
			s.Dispatch(action.KeyInput{Key: key})
		}
		return
	}

	name, status := s.resolver.Resolve(mode, key.Name, now)
	switch status {
	case keybinds.StatusMatched:
		s.Dispatch(action.Command{Name: name})
	case keybinds.StatusNone:
		if mode.IsTextInput() && key.Printable() {
			s.Dispatch(action.KeyInput{Key: key})
		}
	}
}

// Tick discards a partial key sequence that timed out
func (s *Shell) Tick(now time.Time) {
	s.resolver.Expire(s.Mode(), now)
}

// PendingKeys returns the keys of a partial sequence, for the footer
func (s *Shell) PendingKeys() string {
	return s.resolver.Pending()
}

// Dispatch processes a and every action it causes, in order
func (s *Shell) Dispatch(a action.Action) {
	s.pending = append(s.pending, item{action: a})
	for len(s.pending) > 0 && !s.quitting {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.handle(next)
	}
	if s.quitting {
		s.pending = nil
	}
}

func (s *Shell) handle(it item) {
	s.logger.Debug("dispatch", "action", action.Name(it.action), "from", it.from)

	switch a := it.action.(type) {
	case action.Quit:
		s.quitting = true

	case action.NavigatePush:
		s.push(a.Kind, a.Params)

	case action.NavigatePop:
		s.popOrQuit()

	case action.NavigateReplace:
		s.replace(a.Kind, a.Params)

	case action.KeyInput, action.Submit:
		s.toTop(a)

	case action.Command:
		if s.help && s.closesHelp(a.Name) {
			s.help = false
			return
		}
		if s.toTop(a) {
			return
		}
		s.global(a.Name)

	case action.FeedUpdated:
		o, ok := s.owners[a.Sub]
		if !ok {
			s.logger.Debug("dropping update for a removed subscription", "feed", a.Feed, "handle", a.Sub)
			return
		}
		s.toFrame(o.frame, a)

	case action.TaskDone:
		if s.lostSession(a) {
			s.sessionLost(action.Error{
				Kind:        action.Fatal,
				Message:     "session expired, please log in again",
				SessionLost: true,
			})
			return
		}
		s.toFrame(a.Frame, a)

	case action.Error:
		s.handleError(a)

	case action.Subscribe:
		s.subscribe(it.from, a)

	case action.Unsubscribe:
		s.unsubscribe(it.from, a.Feed)

	case action.Refresh:
		if f := s.frame(it.from); f != nil {
			if h, ok := f.subs[a.Feed]; ok {
				s.watcher.Refresh(h)
			}
		}

	case action.Dismiss:
		s.banner = nil
	}
}

// closesHelp reports whether a command dismisses the help overlay
func (s *Shell) closesHelp(name keybinds.Action) bool {
	switch name {
	case keybinds.ActionBack, keybinds.ActionHelp, keybinds.ActionDismiss:
		return true
	}
	return false
}

// global applies the shell's fallback for commands the focused component ignored
func (s *Shell) global(name keybinds.Action) {
	switch name {
	case keybinds.ActionQuit:
		s.quitting = true
	case keybinds.ActionBack:
		s.popOrQuit()
	case keybinds.ActionHelp:
		s.help = !s.help
	case keybinds.ActionDismiss:
		s.banner = nil
	}
}

// toTop hands a to the focused component. It reports whether the component used it.
func (s *Shell) toTop(a action.Action) bool {
	f := s.top()
	if f == nil {
		return false
	}
	return s.deliver(f, a)
}

// toFrame hands a to a frame if it is still on the stack
func (s *Shell) toFrame(id action.FrameID, a action.Action) {
	f := s.frame(id)
	if f == nil {
		s.logger.Debug("dropping action for a removed frame", "action", action.Name(a), "frame", id)
		return
	}
	s.deliver(f, a)
}

func (s *Shell) deliver(f *frame, a action.Action) bool {
	out := f.component.Handle(a)
	for _, next := range out.Actions() {
		s.pending = append(s.pending, item{action: next, from: f.id})
	}
	return !out.IsIgnored()
}

func (s *Shell) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *Shell) frame(id action.FrameID) *frame {
	for _, f := range s.stack {
		if f.id == id {
			return f
		}
	}
	return nil
}

// build constructs a frame without touching the stack. A failure is
// reported on the banner.
func (s *Shell) build(kind action.Kind, params action.Params) (*frame, bool) {
	s.nextID++
	id := s.nextID

	env := s.env
	env.Tasks = &frameTasks{shell: s, frame: id}

	c, err := s.factory(kind, params, env)
	if err != nil {
		s.logger.Error("failed to open screen", "kind", kind, "error", err)
		s.setBanner(action.Error{Kind: action.Transient, Message: fmt.Sprintf("cannot open %s: %v", kind, err)})
		return nil, false
	}
	return &frame{id: id, component: c, subs: make(map[types.FeedID]action.Handle)}, true
}

func (s *Shell) install(f *frame) {
	s.stack = append(s.stack, f)
	s.logger.Debug("pushed", "kind", f.component.Kind(), "frame", f.id, "depth", len(s.stack))

	for _, a := range f.component.Activate() {
		s.pending = append(s.pending, item{action: a, from: f.id})
	}
}

func (s *Shell) push(kind action.Kind, params action.Params) {
	if f, ok := s.build(kind, params); ok {
		s.install(f)
	}
}

// replace swaps the top frame only once its successor exists
func (s *Shell) replace(kind action.Kind, params action.Params) {
	f, ok := s.build(kind, params)
	if !ok {
		return
	}
	s.pop()
	s.install(f)
}

func (s *Shell) popOrQuit() {
	if len(s.stack) <= 1 {
		s.quitting = true
		return
	}
	s.pop()
}

// pop deactivates the top frame, applies its unsubscribes right away and
// sweeps any subscription it still owns. Nothing is called on the new top.
func (s *Shell) pop() {
	f := s.top()
	if f == nil {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.teardown(f)
	s.logger.Debug("popped", "kind", f.component.Kind(), "frame", f.id, "depth", len(s.stack))
}

func (s *Shell) teardown(f *frame) {
	for _, a := range f.component.Deactivate() {
		if u, ok := a.(action.Unsubscribe); ok {
			s.release(f, u.Feed)
			continue
		}
		s.pending = append(s.pending, item{action: a})
	}
	for feed := range f.subs {
		s.logger.Warn("sweeping subscription left by a closed screen", "kind", f.component.Kind(), "feed", feed)
		s.release(f, feed)
	}
}

func (s *Shell) subscribe(from action.FrameID, a action.Subscribe) {
	f := s.frame(from)
	if f == nil {
		return
	}
	id := a.Feed.ID()
	h, ok := f.subs[id]
	if !ok {
		h = s.watcher.Subscribe(a.Feed, a.Interval)
		f.subs[id] = h
		s.owners[h] = owner{frame: f.id, feed: id}
	}
	if a.Immediate {
		s.watcher.Refresh(h)
	}
}

func (s *Shell) unsubscribe(from action.FrameID, feed types.FeedID) {
	if f := s.frame(from); f != nil {
		s.release(f, feed)
	}
}

func (s *Shell) release(f *frame, feed types.FeedID) {
	h, ok := f.subs[feed]
	if !ok {
		return
	}
	delete(f.subs, feed)
	delete(s.owners, h)
	s.watcher.Unsubscribe(h)
}

func (s *Shell) handleError(e action.Error) {
	var target *frame
	if e.Sub != 0 {
		o, ok := s.owners[e.Sub]
		if !ok {
			// the subscription went away after the error was queued
			return
		}
		target = s.frame(o.frame)
	}

	switch {
	case e.Kind == action.Fatal && e.SessionLost:
		s.sessionLost(e)
	case e.Kind == action.Fatal:
		s.setBanner(e)
		if target != nil {
			s.deliver(target, e)
		}
	default:
		s.setBanner(e)
	}
}

// sessionLost drops the session and every screen, leaving only the login
func (s *Shell) sessionLost(e action.Error) {
	s.logger.Warn("session lost", "reason", e.Message)
	s.env.Session.Invalidate()

	login, ok := s.build(action.KindLogin, action.Params{})
	for len(s.stack) > 0 {
		s.pop()
	}
	s.pending = nil
	s.help = false
	if !ok {
		// nothing usable is left to show
		s.quitting = true
		return
	}
	s.install(login)
	s.setBanner(e)
}

// lostSession reports whether a task failed because the live session was
// rejected. Results for frames already gone are left to be dropped.
func (s *Shell) lostSession(done action.TaskDone) bool {
	if !errors.Is(done.Result.Err, types.ErrSessionInvalid) {
		return false
	}
	if s.env.Session == nil || !s.env.Session.Valid() {
		return false
	}
	return s.frame(done.Frame) != nil
}

func (s *Shell) setBanner(e action.Error) {
	now := time.Now()
	if s.env.Now != nil {
		now = s.env.Now()
	}
	s.banner = &Banner{Kind: e.Kind, Message: e.Message, At: now}
}

// Screen is everything the painter draws for one frame
type Screen struct {
	Tree       widget.Tree
	Breadcrumb string // title of the frame below the top
	Banner     *Banner
	Help       []keybinds.Binding // set while the help overlay is open
	Mode       keybinds.Mode
	Pending    string
}

// View renders the focused component for a width x height area
func (s *Shell) View(width, height int) Screen {
	sc := Screen{Banner: s.banner, Mode: s.Mode(), Pending: s.resolver.Pending()}
	f := s.top()
	if f == nil {
		return sc
	}
	sc.Tree = f.component.Render(width, height)
	if len(s.stack) > 1 {
		sc.Breadcrumb = s.stack[len(s.stack)-2].component.Render(width, height).Title
	}
	if s.help {
		sc.Help = s.helpBindings()
	}
	return sc
}

// helpBindings lists the bindings active in the current mode, then the
// global ones the mode does not override
func (s *Shell) helpBindings() []keybinds.Binding {
	km := s.resolver.Keymap()
	mode := s.Mode()
	out := km.Bindings(mode)
	if mode == keybinds.ModeGlobal {
		return out
	}

	own := make(map[string]bool, len(out))
	for _, b := range out {
		own[b.Key] = true
	}
	for _, b := range km.Bindings(keybinds.ModeGlobal) {
		if !own[b.Key] {
			out = append(out, b)
		}
	}
	return out
}

// Close deactivates every frame, so drafts are saved, and waits for running tasks
func (s *Shell) Close() {
	for len(s.stack) > 0 {
		s.pop()
	}
	s.pending = nil
	s.cancel()
	s.tasks.Wait()
}
