package keybinds

import (
	"strings"
	"time"
)

// Status is the outcome of feeding one key to the Resolver
type Status int

const (
	// StatusNone means the key is not bound in the current mode
	StatusNone Status = iota
	// StatusPending means the key extends a sequence that is not complete yet
	StatusPending
	// StatusMatched means the key completed a binding
	StatusMatched
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusMatched:
		return "matched"
	default:
		return "none"
	}
}

// DefaultSequenceTimeout is how long a partial sequence waits for its next key
const DefaultSequenceTimeout = time.Second

// Resolver turns key presses into actions, tracking partial multi-key
// sequences such as "g g". It is owned by the event loop and never touches
// application state.
type Resolver struct {
	keymap  *Keymap
	timeout time.Duration

	pending     []string
	pendingMode Mode
	lastKey     time.Time
}

// NewResolver creates a resolver over keymap. A non-positive timeout uses DefaultSequenceTimeout.
func NewResolver(keymap *Keymap, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultSequenceTimeout
	}
	return &Resolver{keymap: keymap, timeout: timeout}
}

// Keymap returns the keymap the resolver reads from
func (r *Resolver) Keymap() *Keymap {
	return r.keymap
}

// Resolve feeds one key in the given mode.
//
// A key that is a proper prefix of a bound sequence yields StatusPending and
// takes precedence over a single-key binding of the same chord. A pending
// sequence is discarded without an action when the mode changes or when more
// than the timeout has passed since its last key. A key that breaks a pending
// sequence is then resolved on its own.
func (r *Resolver) Resolve(mode Mode, key string, now time.Time) (Action, Status) {
	key = NormalizeChord(key)
	if key == "" {
		return "", StatusNone
	}

	r.Expire(mode, now)

	if len(r.pending) > 0 {
		seq := strings.Join(append(append([]string(nil), r.pending...), key), " ")
		if r.keymap.IsPrefix(mode, seq) {
			r.pending = append(r.pending, key)
			r.lastKey = now
			return "", StatusPending
		}
		r.Reset()
		if action, ok := r.keymap.Lookup(mode, seq); ok {
			return action, StatusMatched
		}
	}

	if r.keymap.IsPrefix(mode, key) {
		r.pending = []string{key}
		r.pendingMode = mode
		r.lastKey = now
		return "", StatusPending
	}

	if action, ok := r.keymap.Lookup(mode, key); ok {
		return action, StatusMatched
	}
	return "", StatusNone
}

// Expire drops a pending sequence that has timed out or belongs to another
// mode. It reports whether anything was discarded.
func (r *Resolver) Expire(mode Mode, now time.Time) bool {
	if len(r.pending) == 0 {
		return false
	}
	if mode != r.pendingMode || now.Sub(r.lastKey) > r.timeout {
		r.Reset()
		return true
	}
	return false
}

// Reset discards any pending sequence
func (r *Resolver) Reset() {
	r.pending = nil
	r.pendingMode = ""
	r.lastKey = time.Time{}
}

// Pending returns the keys of the partial sequence, space separated, or ""
func (r *Resolver) Pending() string {
	return strings.Join(r.pending, " ")
}

// Timeout returns the sequence timeout
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}
