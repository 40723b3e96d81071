package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/app"
)

// actionMsg carries one action popped from the queue
type actionMsg struct {
	action action.Action
}

// queueClosedMsg means no more actions will arrive
type queueClosedMsg struct{}

// sequenceTimeoutMsg fires when a partial key sequence may have expired
type sequenceTimeoutMsg time.Time

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	shell   *app.Shell
	queue   *action.Queue
	timeout time.Duration

	spinner spinner.Model
	body    viewport.Model

	width  int
	height int
}

// New creates a model painting shell. Actions pushed to queue by the
// watcher and by tasks are dispatched on the Bubble Tea goroutine.
func New(ctx context.Context, shell *app.Shell, queue *action.Queue, sequenceTimeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleAccent

	return Model{
		ctx:     ctx,
		shell:   shell,
		queue:   queue,
		timeout: sequenceTimeout,
		spinner: s,
		body:    viewport.New(80, 20),
	}
}

// Init starts the queue listener and the spinner
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForAction(), m.spinner.Tick)
}

// waitForAction returns a Cmd that blocks until the next queued action
func (m *Model) waitForAction() tea.Cmd {
	return func() tea.Msg {
		a, err := m.queue.Pop(m.ctx)
		if err != nil {
			return queueClosedMsg{}
		}
		return actionMsg{action: a}
	}
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.shell.HandleKey(keyFromMsg(msg), time.Now())
		if m.shell.PendingKeys() != "" {
			cmd = tea.Tick(m.timeout, func(t time.Time) tea.Msg {
				return sequenceTimeoutMsg(t)
			})
		}

	// Mouse events are captured so the terminal does not scroll; navigation is keyboard only
	case tea.MouseMsg:

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case actionMsg:
		m.shell.Dispatch(msg.action)
		cmd = m.waitForAction()

	case queueClosedMsg:
		return m, tea.Quit

	case sequenceTimeoutMsg:
		m.shell.Tick(time.Time(msg))

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	if m.shell.Quitting() {
		return m, tea.Quit
	}
	return m, cmd
}

// View renders the focused screen with its header, banner and footer
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	km := m.shell.Keymap()
	sc := m.shell.View(m.width, m.height-HeaderLines-FooterLines)

	header := renderHeader(sc, m.width)
	notice := renderNotice(sc.Tree, m.width)
	banner := renderBanner(sc.Banner, km, sc.Mode, m.width)
	footer := renderFooter(sc, km, m.width)

	height := m.height - HeaderLines - FooterLines
	for _, extra := range []string{notice, banner} {
		if extra != "" {
			height--
		}
	}
	if height < MinBodyHeight {
		height = MinBodyHeight
	}

	p := painter{spinner: m.spinner.View()}
	var body block
	if sc.Help != nil {
		body = p.renderHelp(sc.Help, m.width)
	} else if sc.Tree.Body != nil {
		body = p.paint(sc.Tree.Body, m.width)
	}

	sections := []string{header, m.scroll(body, height)}
	for _, extra := range []string{notice, banner} {
		if extra != "" {
			sections = append(sections, extra)
		}
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// scroll fits the body into height lines, keeping the focused range visible
func (m Model) scroll(b block, height int) string {
	vp := m.body
	vp.Width = m.width
	vp.Height = height
	vp.SetContent(strings.Join(b.lines, "\n"))

	if b.focused && b.bottom >= height {
		offset := b.bottom - height + 1
		if b.top < offset {
			offset = b.top
		}
		vp.SetYOffset(offset)
	}
	return vp.View()
}
