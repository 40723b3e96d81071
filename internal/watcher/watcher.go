// Package watcher polls feeds in the background and reports results as
// actions on the shared queue.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/types"
)

// DefaultMaxConcurrentFetches bounds in-flight fetches when no limit is configured
const DefaultMaxConcurrentFetches = 4

// Fetcher loads the posts of a feed that are newer than cursor, newest first
type Fetcher interface {
	FetchFeed(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error)
}

// Sink receives the actions produced by subscriptions. Push must not block.
type Sink interface {
	Push(action.Action)
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithMaxConcurrentFetches bounds the number of fetches running at once across all subscriptions
func WithMaxConcurrentFetches(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.maxFetches = int64(n)
		}
	}
}

// Watcher owns one polling goroutine per subscription
type Watcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	fetcher    Fetcher
	sink       Sink
	logger     *slog.Logger
	maxFetches int64
	sem        *semaphore.Weighted

	mu     sync.Mutex
	subs   map[action.Handle]*subscription
	dead   map[action.Handle]bool
	next   action.Handle
	closed bool

	wg sync.WaitGroup
}

type subscription struct {
	handle   action.Handle
	feed     types.FeedDescriptor
	interval time.Duration

	refresh chan struct{}
	stop    chan struct{}

	// emitMu orders emission against Unsubscribe: once live is false nothing more is pushed
	emitMu sync.Mutex
	live   bool

	// cursor is only touched by the polling goroutine
	cursor types.Cursor
}

// New creates a watcher. Fetches run with a context derived from ctx, so
// they outlive individual subscriptions and end with the application.
func New(ctx context.Context, fetcher Fetcher, sink Sink, opts ...Option) *Watcher {
	w := &Watcher{
		fetcher:    fetcher,
		sink:       sink,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxFetches: DefaultMaxConcurrentFetches,
		subs:       make(map[action.Handle]*subscription),
		dead:       make(map[action.Handle]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.sem = semaphore.NewWeighted(w.maxFetches)
	return w
}

// Subscribe starts polling feed every interval. The first fetch happens
// after one interval unless Refresh is called.
func (w *Watcher) Subscribe(feed types.FeedDescriptor, interval time.Duration) action.Handle {
	if interval <= 0 {
		interval = time.Minute
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	s := &subscription{
		handle:   w.next,
		feed:     feed,
		interval: interval,
		refresh:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		live:     true,
	}
	if w.closed {
		s.live = false
		return s.handle
	}
	w.subs[s.handle] = s

	w.wg.Add(1)
	go w.run(s)

	w.logger.Debug("subscribed", "handle", s.handle, "feed", feed.ID(), "interval", interval)
	return s.handle
}

// Unsubscribe stops a subscription. After it returns no further action for
// the handle is pushed; an in-flight fetch finishes and its result is dropped.
// Unknown or already removed handles are ignored.
func (w *Watcher) Unsubscribe(h action.Handle) {
	w.mu.Lock()
	s, ok := w.subs[h]
	delete(w.subs, h)
	delete(w.dead, h)
	w.mu.Unlock()

	if !ok {
		return
	}

	s.emitMu.Lock()
	s.live = false
	s.emitMu.Unlock()
	close(s.stop)

	w.logger.Debug("unsubscribed", "handle", h, "feed", s.feed.ID())
}

// Refresh makes a subscription fetch now instead of waiting for its interval
func (w *Watcher) Refresh(h action.Handle) {
	w.mu.Lock()
	s, ok := w.subs[h]
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Dead reports whether a subscription stopped after a panic
func (w *Watcher) Dead(h action.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dead[h]
}

// Active returns the number of live subscriptions
func (w *Watcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs) - len(w.dead)
}

// Close stops every subscription, cancels in-flight fetches and waits for the goroutines
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	handles := make([]action.Handle, 0, len(w.subs))
	for h := range w.subs {
		handles = append(handles, h)
	}
	w.mu.Unlock()

	for _, h := range handles {
		w.Unsubscribe(h)
	}
	w.cancel()
	w.wg.Wait()
}

func (w *Watcher) run(s *subscription) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("feed watcher crashed", "handle", s.handle, "feed", s.feed.ID(), "panic", r)
			w.mu.Lock()
			if _, ok := w.subs[s.handle]; ok {
				w.dead[s.handle] = true
			}
			w.mu.Unlock()
			s.emit(w.sink, action.Error{
				Kind:    action.Fatal,
				Message: fmt.Sprintf("%s stopped updating", s.feed.Title()),
				Feed:    s.feed.ID(),
				Sub:     s.handle,
			})
		}
	}()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-w.ctx.Done():
			return
		case <-timer.C:
		case <-s.refresh:
			timer.Stop()
		}

		w.poll(s)
		timer.Reset(s.interval)
	}
}

func (w *Watcher) poll(s *subscription) {
	posts, err := w.fetch(s)
	if err != nil {
		if w.ctx.Err() != nil {
			return
		}
		w.logger.Warn("feed fetch failed", "feed", s.feed.ID(), "error", err)

		e := action.Error{
			Kind:    action.Transient,
			Message: fmt.Sprintf("%s: %v", s.feed.Title(), err),
			Feed:    s.feed.ID(),
			Sub:     s.handle,
		}
		if errors.Is(err, types.ErrSessionInvalid) {
			e.Kind = action.Fatal
			e.SessionLost = true
			e.Message = "session expired, please log in again"
		}
		s.emit(w.sink, e)
		return
	}

	next := s.cursor.Advance(posts)
	if s.emit(w.sink, action.FeedUpdated{
		Feed:   s.feed.ID(),
		Posts:  posts,
		Cursor: next,
		Sub:    s.handle,
	}) {
		s.cursor = next
	}
	w.logger.Debug("feed fetched", "feed", s.feed.ID(), "posts", len(posts))
}

func (w *Watcher) fetch(s *subscription) ([]types.PostSummary, error) {
	if err := w.sem.Acquire(w.ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)

	return w.fetcher.FetchFeed(w.ctx, s.feed, s.cursor)
}

// emit pushes a to the sink unless the subscription was removed. It reports whether a was pushed.
func (s *subscription) emit(sink Sink, a action.Action) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if !s.live {
		return false
	}
	sink.Push(a)
	return true
}
