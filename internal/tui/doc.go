/*
Package tui is the terminal front end of skycli.

# Architecture

The TUI follows the Bubble Tea framework's Model-Update-View pattern, but
keeps no screen state of its own:
  - Model: wraps the app shell, the action queue and the terminal size
  - Update: turns key presses and queued actions into shell dispatches
  - View: paints the widget.Tree of the focused component

# Key Components

  - model.go: Model, Update and the queue listener
  - keys.go: translation of tea.KeyMsg into keybinds.Key
  - render.go: painting of widget nodes with lipgloss
  - init.go: program construction

Everything that reaches a component goes through the shell on the Bubble
Tea goroutine. Background work (watcher polls, detached tasks) only pushes
to the action queue, which the model drains one action per message.
*/
package tui
