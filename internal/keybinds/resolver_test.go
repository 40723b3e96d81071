package keybinds

import (
	"testing"
	"time"
)

type keyPress struct {
	mode  Mode
	key   string
	after time.Duration
}

func TestResolver_Resolve(t *testing.T) {
	keymap := NewKeymap()
	keymap.Register(ModeGlobal, "ctrl+c", ActionQuit)
	keymap.Register(ModeFeed, "g g", ActionGoToTop)
	keymap.Register(ModeFeed, "j", ActionNavigateDown)
	keymap.Register(ModeFeed, "G", ActionGoToBottom)
	keymap.Register(ModeFeed, "z", ActionRefresh)
	keymap.Register(ModeFeed, "z z", ActionNoOp)

	tests := []struct {
		name       string
		presses    []keyPress
		wantAction Action
		wantStatus Status
	}{
		{
			name:       "single key",
			presses:    []keyPress{{ModeFeed, "j", 0}},
			wantAction: ActionNavigateDown,
			wantStatus: StatusMatched,
		},
		{
			name:       "global fallback",
			presses:    []keyPress{{ModeFeed, "ctrl+c", 0}},
			wantAction: ActionQuit,
			wantStatus: StatusMatched,
		},
		{
			name:       "unbound",
			presses:    []keyPress{{ModeFeed, "x", 0}},
			wantStatus: StatusNone,
		},
		{
			name:       "sequence start is pending",
			presses:    []keyPress{{ModeFeed, "g", 0}},
			wantStatus: StatusPending,
		},
		{
			name:       "sequence completes",
			presses:    []keyPress{{ModeFeed, "g", 0}, {ModeFeed, "g", 100 * time.Millisecond}},
			wantAction: ActionGoToTop,
			wantStatus: StatusMatched,
		},
		{
			name:       "prefix takes precedence over single key",
			presses:    []keyPress{{ModeFeed, "z", 0}},
			wantStatus: StatusPending,
		},
		{
			name:       "broken sequence resolves the breaking key",
			presses:    []keyPress{{ModeFeed, "g", 0}, {ModeFeed, "j", 100 * time.Millisecond}},
			wantAction: ActionNavigateDown,
			wantStatus: StatusMatched,
		},
		{
			name:       "timed out sequence is discarded",
			presses:    []keyPress{{ModeFeed, "g", 0}, {ModeFeed, "G", 2 * time.Second}},
			wantAction: ActionGoToBottom,
			wantStatus: StatusMatched,
		},
		{
			name:       "timed out sequence does not complete",
			presses:    []keyPress{{ModeFeed, "g", 0}, {ModeFeed, "g", 2 * time.Second}},
			wantStatus: StatusPending,
		},
		{
			name:       "mode change discards sequence",
			presses:    []keyPress{{ModeFeed, "g", 0}, {ModePost, "g", 10 * time.Millisecond}},
			wantStatus: StatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(keymap, time.Second)
			now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			var action Action
			var status Status
			for _, p := range tt.presses {
				now = now.Add(p.after)
				action, status = r.Resolve(p.mode, p.key, now)
			}

			if action != tt.wantAction || status != tt.wantStatus {
				t.Errorf("Resolve() = (%q, %v), want (%q, %v)", action, status, tt.wantAction, tt.wantStatus)
			}
		})
	}
}

func TestResolver_Expire(t *testing.T) {
	keymap := NewDefaultKeymap()
	r := NewResolver(keymap, 500*time.Millisecond)
	start := time.Now()

	if _, status := r.Resolve(ModeFeed, "g", start); status != StatusPending {
		t.Fatalf("Resolve(g) status = %v, want pending", status)
	}
	if got := r.Pending(); got != "g" {
		t.Errorf("Pending() = %q, want %q", got, "g")
	}

	if r.Expire(ModeFeed, start.Add(100*time.Millisecond)) {
		t.Error("Expire() discarded a fresh sequence")
	}
	if !r.Expire(ModeFeed, start.Add(time.Second)) {
		t.Error("Expire() kept a stale sequence")
	}
	if got := r.Pending(); got != "" {
		t.Errorf("Pending() after expiry = %q, want empty", got)
	}
}

func TestResolver_DefaultTimeout(t *testing.T) {
	r := NewResolver(NewKeymap(), 0)
	if r.Timeout() != DefaultSequenceTimeout {
		t.Errorf("Timeout() = %v, want %v", r.Timeout(), DefaultSequenceTimeout)
	}
}
