package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/app"
	"github.com/studiowebux/skycli/internal/component"
	"github.com/studiowebux/skycli/internal/config"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/types"
)

// nopWatcher hands out handles without polling
type nopWatcher struct {
	next action.Handle
}

func (w *nopWatcher) Subscribe(feed types.FeedDescriptor, interval time.Duration) action.Handle {
	w.next++
	return w.next
}

func (w *nopWatcher) Unsubscribe(h action.Handle) {}

func (w *nopWatcher) Refresh(h action.Handle) {}

// CreateTestModel creates a started Model on the login screen with a
// 80x24 terminal
func CreateTestModel(t *testing.T) (*Model, *action.Queue) {
	t.Helper()

	queue := action.NewQueue()
	env := component.Env{
		Session:  session.New(""),
		Settings: config.Default(),
	}
	shell := app.New(context.Background(), env, keybinds.NewDefaultKeymap(), &nopWatcher{}, queue)
	t.Cleanup(shell.Close)
	shell.Start()

	m := New(context.Background(), shell, queue, env.Settings.SequenceTimeout)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return &m, queue
}
