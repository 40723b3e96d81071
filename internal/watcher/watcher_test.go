package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/types"
)

// fetchFunc adapts a function to the Fetcher interface
type fetchFunc func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error)

func (f fetchFunc) FetchFeed(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
	return f(ctx, feed, cursor)
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func postAt(uri string, minutes int) types.PostSummary {
	return types.PostSummary{URI: uri, IndexedAt: epoch.Add(time.Duration(minutes) * time.Minute)}
}

func testFeed() types.FeedDescriptor {
	return types.FeedDescriptor{Kind: types.FeedGenerator, URI: "at://did:plc:x/app.bsky.feed.generator/test", DisplayName: "Test"}
}

// popWithin waits for the next action on q
func popWithin(t *testing.T, q *action.Queue, d time.Duration) action.Action {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	a, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("no action within %v: %v", d, err)
	}
	return a
}

func TestWatcher_CursorAdvancesAndNeverRewinds(t *testing.T) {
	batches := [][]types.PostSummary{
		{postAt("b", 5), postAt("a", 3)},
		{postAt("old", 1)},
		{postAt("c", 9)},
	}
	var calls int32
	var mu sync.Mutex
	var seen []types.Cursor

	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		mu.Lock()
		seen = append(seen, cursor)
		mu.Unlock()
		i := atomic.AddInt32(&calls, 1) - 1
		if int(i) >= len(batches) {
			return nil, nil
		}
		return batches[i], nil
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q)
	defer w.Close()

	h := w.Subscribe(testFeed(), time.Hour)
	var cursors []types.Cursor
	for range batches {
		w.Refresh(h)
		a := popWithin(t, q, 2*time.Second)
		upd, ok := a.(action.FeedUpdated)
		if !ok {
			t.Fatalf("got %T, want FeedUpdated", a)
		}
		if upd.Sub != h || upd.Feed != testFeed().ID() {
			t.Errorf("FeedUpdated routed to (%v, %v), want (%v, %v)", upd.Sub, upd.Feed, h, testFeed().ID())
		}
		cursors = append(cursors, upd.Cursor)
	}

	want := []time.Time{epoch.Add(5 * time.Minute), epoch.Add(5 * time.Minute), epoch.Add(9 * time.Minute)}
	for i, c := range cursors {
		if !c.Newest.Equal(want[i]) {
			t.Errorf("cursor #%d = %v, want %v", i, c.Newest, want[i])
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !seen[0].IsZero() {
		t.Errorf("first fetch cursor = %v, want zero", seen[0])
	}
	if !seen[2].Newest.Equal(want[1]) {
		t.Errorf("third fetch cursor = %v, want %v", seen[2].Newest, want[1])
	}
}

func TestWatcher_TransientErrorKeepsCursor(t *testing.T) {
	var calls int32
	cursors := make(chan types.Cursor, 3)

	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		cursors <- cursor
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return []types.PostSummary{postAt("a", 5)}, nil
		case 2:
			return nil, errors.New("connection reset")
		default:
			return nil, nil
		}
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q)
	defer w.Close()
	h := w.Subscribe(testFeed(), time.Hour)

	w.Refresh(h)
	popWithin(t, q, 2*time.Second)

	w.Refresh(h)
	a := popWithin(t, q, 2*time.Second)
	e, ok := a.(action.Error)
	if !ok {
		t.Fatalf("got %T, want Error", a)
	}
	if e.Kind != action.Transient || e.SessionLost || e.Feed != testFeed().ID() {
		t.Errorf("Error = %+v, want transient for feed", e)
	}

	w.Refresh(h)
	popWithin(t, q, 2*time.Second)

	<-cursors
	<-cursors
	if third := <-cursors; !third.Newest.Equal(epoch.Add(5 * time.Minute)) {
		t.Errorf("cursor after failure = %v, want unchanged", third.Newest)
	}
}

func TestWatcher_SessionInvalidIsFatal(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		return nil, fmt.Errorf("getTimeline: %w", types.ErrSessionInvalid)
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q)
	defer w.Close()
	w.Refresh(w.Subscribe(testFeed(), time.Hour))

	e, ok := popWithin(t, q, 2*time.Second).(action.Error)
	if !ok || e.Kind != action.Fatal || !e.SessionLost {
		t.Errorf("got %+v, want fatal session lost error", e)
	}
}

func TestWatcher_NoUpdateAfterUnsubscribe(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		close(started)
		<-release
		return []types.PostSummary{postAt("late", 1)}, nil
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q)
	h := w.Subscribe(testFeed(), time.Hour)
	w.Refresh(h)

	<-started
	w.Unsubscribe(h)
	close(release)
	w.Close()

	if q.Len() != 0 {
		a, _ := q.TryPop()
		t.Errorf("queue has %s after Unsubscribe, want nothing", action.Name(a))
	}

	w.Unsubscribe(h)
}

func TestWatcher_PanicEmitsOneFatalAndStops(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		atomic.AddInt32(&calls, 1)
		panic("boom")
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q)
	defer w.Close()
	h := w.Subscribe(testFeed(), 10*time.Millisecond)

	e, ok := popWithin(t, q, 2*time.Second).(action.Error)
	if !ok || e.Kind != action.Fatal || e.SessionLost || e.Sub != h {
		t.Fatalf("got %+v, want fatal feed error", e)
	}

	w.Refresh(h)
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetch called %d times, want 1 (no restart)", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
	if !w.Dead(h) {
		t.Error("Dead() = false, want true")
	}
	if w.Active() != 0 {
		t.Errorf("Active() = %d, want 0", w.Active())
	}
}

func TestWatcher_BoundsConcurrentFetches(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})

	fetcher := fetchFunc(func(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	})

	q := action.NewQueue()
	w := New(context.Background(), fetcher, q, WithMaxConcurrentFetches(2))

	for i := 0; i < 5; i++ {
		feed := testFeed()
		feed.URI = fmt.Sprintf("%s-%d", feed.URI, i)
		w.Refresh(w.Subscribe(feed, time.Hour))
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	for i := 0; i < 5; i++ {
		popWithin(t, q, 2*time.Second)
	}
	w.Close()

	if got := atomic.LoadInt32(&peak); got != 2 {
		t.Errorf("peak concurrent fetches = %d, want 2", got)
	}
}

func TestWatcher_SubscribeAfterClose(t *testing.T) {
	q := action.NewQueue()
	w := New(context.Background(), fetchFunc(func(context.Context, types.FeedDescriptor, types.Cursor) ([]types.PostSummary, error) {
		return nil, nil
	}), q)
	w.Close()

	h := w.Subscribe(testFeed(), time.Millisecond)
	w.Refresh(h)
	time.Sleep(20 * time.Millisecond)

	if q.Len() != 0 || w.Active() != 0 {
		t.Errorf("closed watcher produced actions: len=%d active=%d", q.Len(), w.Active())
	}
}
