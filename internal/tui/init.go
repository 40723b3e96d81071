package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/app"
)

// Run starts the TUI and blocks until the shell quits or ctx ends.
// The shell must already be started.
func Run(ctx context.Context, shell *app.Shell, queue *action.Queue, sequenceTimeout time.Duration) error {
	m := New(ctx, shell, queue, sequenceTimeout)

	// Pass pointer since Update uses pointer receiver.
	// Mouse is disabled by default in bubbletea
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}

	return nil
}
