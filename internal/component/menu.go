package component

import (
	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/widget"
)

type menuEntry struct {
	label       string
	description string
	target      action.Action
}

var menuEntries = []menuEntry{
	{label: "Following", description: "your home timeline", target: action.NavigatePush{Kind: action.KindFeed}},
	{label: "Feeds", description: "saved feeds, updated live", target: action.NavigatePush{Kind: action.KindFeedList}},
	{label: "Pinned", description: "feeds pinned on this machine", target: action.NavigatePush{Kind: action.KindPinned}},
	{label: "New post", description: "write a post", target: action.NavigatePush{Kind: action.KindComposer}},
	{label: "Log out", description: "forget the stored session", target: action.NavigateReplace{Kind: action.KindLogin, Params: action.Params{Logout: true}}},
}

// Menu is the home screen
type Menu struct {
	env Env
	sel selection
}

func NewMenu(env Env) *Menu {
	return &Menu{env: env}
}

func (m *Menu) Kind() action.Kind           { return action.KindMenu }
func (m *Menu) Mode() keybinds.Mode         { return keybinds.ModeMenu }
func (m *Menu) Activate() []action.Action   { return nil }
func (m *Menu) Deactivate() []action.Action { return nil }

func (m *Menu) Handle(a action.Action) action.Outcome {
	cmd, ok := a.(action.Command)
	if !ok {
		return action.Ignored()
	}

	if m.sel.Move(cmd.Name, len(menuEntries)) {
		return action.Consumed()
	}

	switch cmd.Name {
	case keybinds.ActionSelect:
		return action.Propagate(menuEntries[m.sel.index].target)
	case keybinds.ActionCompose:
		return action.Propagate(action.NavigatePush{Kind: action.KindComposer})
	case keybinds.ActionQuit:
		return action.Propagate(action.Quit{})
	}
	return action.Ignored()
}

func (m *Menu) Render(width, height int) widget.Tree {
	list := widget.List{Selected: m.sel.index}
	for _, e := range menuEntries {
		list.Items = append(list.Items, widget.Item{Lines: []widget.Line{
			widget.Plain(e.label, widget.StyleTitle),
			widget.Plain(e.description, widget.StyleSubtle),
		}})
	}

	title := "skycli"
	if h := m.env.Session.Snapshot().Handle; h != "" {
		title += " · @" + h
	}

	return widget.Tree{
		Title: title,
		Body:  list,
		Hints: []keybinds.Action{keybinds.ActionSelect, keybinds.ActionCompose, keybinds.ActionHelp, keybinds.ActionQuit},
	}
}
