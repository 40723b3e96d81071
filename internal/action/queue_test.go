package action

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Push(Command{Name: "a"})
	q.Push(NavigatePop{})
	q.Push(Quit{})

	want := []string{"command:a", "pop", "quit"}
	for i, w := range want {
		a, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("Pop() #%d error = %v", i, err)
		}
		if got := Name(a); got != w {
			t.Errorf("Pop() #%d = %s, want %s", i, got, w)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_PushNeverBlocks(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 10000; i++ {
			q.Push(Dismiss{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Push() blocked without a consumer")
	}

	if q.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", q.Len())
	}
}

func TestQueue_PopWaitsForPush(t *testing.T) {
	q := NewQueue()
	got := make(chan Action, 1)

	go func() {
		a, err := q.Pop(context.Background())
		if err == nil {
			got <- a
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(Quit{})

	select {
	case a := <-got:
		if _, ok := a.(Quit); !ok {
			t.Errorf("Pop() = %T, want Quit", a)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pop() did not wake up")
	}
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(TaskDone{Frame: FrameID(p), Result: Result{Value: i}})
			}
		}(p)
	}
	wg.Wait()

	last := make(map[FrameID]int)
	for p := 0; p < producers; p++ {
		last[FrameID(p)] = -1
	}
	for q.Len() > 0 {
		a, _ := q.TryPop()
		done := a.(TaskDone)
		i := done.Result.Value.(int)
		if i != last[done.Frame]+1 {
			t.Fatalf("producer %d: got %d after %d", done.Frame, i, last[done.Frame])
		}
		last[done.Frame] = i
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue()
	q.Push(Quit{})
	q.Close()
	q.Push(Dismiss{})

	if a, err := q.Pop(context.Background()); err != nil || Name(a) != "quit" {
		t.Fatalf("Pop() = (%v, %v), want queued action before close", a, err)
	}
	if _, err := q.Pop(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Pop() error = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_PopContextCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Pop() error = %v, want context.Canceled", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name        string
		outcome     Outcome
		wantIgnored bool
		wantActions int
		wantString  string
	}{
		{"consumed", Consumed(), false, 0, "consumed"},
		{"ignored", Ignored(), true, 0, "ignored"},
		{"propagate", Propagate(NavigatePop{}, Quit{}), false, 2, "propagate"},
		{"empty propagate is consumed", Propagate(), false, 0, "consumed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.IsIgnored(); got != tt.wantIgnored {
				t.Errorf("IsIgnored() = %v, want %v", got, tt.wantIgnored)
			}
			if got := len(tt.outcome.Actions()); got != tt.wantActions {
				t.Errorf("len(Actions()) = %d, want %d", got, tt.wantActions)
			}
			if got := tt.outcome.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}
