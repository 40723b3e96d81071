package component

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/config"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/session"
	"github.com/studiowebux/skycli/internal/types"
	"github.com/studiowebux/skycli/internal/widget"
)

const opLogin = "login"

const (
	fieldIdentifier = iota
	fieldPassword
	fieldService
	fieldCount
)

// Login asks for credentials and establishes the session
type Login struct {
	env    Env
	logout bool // clear the stored session on activation

	fields [fieldCount]*buffer
	focus  int
	busy   bool // authentication in progress

	notice      string
	noticeStyle widget.Style
}

// NewLogin creates the login screen, prefilled with the last used handle and service
func NewLogin(env Env, logout bool) *Login {
	d := env.Session.Snapshot()
	service := d.Service
	if service == "" {
		service = env.Settings.Service
	}
	if service == "" {
		service = config.DefaultService
	}

	l := &Login{env: env, logout: logout}
	l.fields[fieldIdentifier] = newLineBuffer(d.Handle)
	l.fields[fieldPassword] = newLineBuffer("")
	l.fields[fieldService] = newLineBuffer(service)
	if d.Handle != "" {
		l.focus = fieldPassword
	}
	return l
}

func (l *Login) Kind() action.Kind   { return action.KindLogin }
func (l *Login) Mode() keybinds.Mode { return keybinds.ModeLogin }

func (l *Login) Activate() []action.Action {
	if !l.logout {
		return nil
	}
	if err := l.env.Session.Clear(); err != nil {
		l.env.logger().Warn("failed to clear session", "error", err)
		return []action.Action{action.Error{Kind: action.Transient, Message: err.Error()}}
	}
	l.env.logger().Info("logged out")
	l.notice, l.noticeStyle = "logged out", widget.StyleSuccess
	return nil
}

func (l *Login) Deactivate() []action.Action {
	return nil
}

func (l *Login) Handle(a action.Action) action.Outcome {
	switch a := a.(type) {
	case action.KeyInput:
		if l.busy {
			return action.Consumed()
		}
		l.fields[l.focus].Insert(a.Key.Runes)
		return action.Consumed()

	case action.Submit:
		return l.submit()

	case action.Command:
		switch a.Name {
		case keybinds.ActionSubmit:
			return l.submit()
		case keybinds.ActionNextField:
			l.focus = (l.focus + 1) % fieldCount
			return action.Consumed()
		case keybinds.ActionPrevField:
			l.focus = (l.focus + fieldCount - 1) % fieldCount
			return action.Consumed()
		}
		if !l.busy && l.fields[l.focus].Edit(a.Name) {
			return action.Consumed()
		}
		return action.Ignored()

	case action.TaskDone:
		if a.Result.Op != opLogin {
			return action.Ignored()
		}
		return l.finish(a.Result)
	}
	return action.Ignored()
}

func (l *Login) credentials() types.Credentials {
	return types.Credentials{
		Identifier: strings.TrimSpace(l.fields[fieldIdentifier].String()),
		Password:   l.fields[fieldPassword].String(),
		Service:    strings.TrimSpace(l.fields[fieldService].String()),
	}
}

func (l *Login) validate(creds types.Credentials) string {
	if creds.Identifier == "" || creds.Password == "" {
		return "identifier and password are required"
	}
	u, err := url.Parse(creds.Service)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "service must be an http(s) URL"
	}
	return ""
}

func (l *Login) submit() action.Outcome {
	if l.busy {
		return action.Consumed()
	}

	creds := l.credentials()
	if msg := l.validate(creds); msg != "" {
		l.notice, l.noticeStyle = msg, widget.StyleError
		return action.Consumed()
	}

	l.busy = true
	l.notice = ""
	network := l.env.Network
	l.env.Tasks.Go(opLogin, func(ctx context.Context) (any, error) {
		return network.Authenticate(ctx, creds)
	})
	return action.Consumed()
}

func (l *Login) finish(res action.Result) action.Outcome {
	l.busy = false

	if res.Err != nil {
		msg := fmt.Sprintf("login failed: %v", res.Err)
		if errors.Is(res.Err, types.ErrInvalidCredentials) {
			msg = "invalid identifier or password"
		}
		l.env.logger().Info("login failed", "error", res.Err)
		l.notice, l.noticeStyle = msg, widget.StyleError
		return action.Propagate(action.Error{Kind: action.Auth, Message: msg})
	}

	data, ok := res.Value.(session.Data)
	if !ok || !data.Valid() {
		l.notice, l.noticeStyle = "login failed: empty session", widget.StyleError
		return action.Propagate(action.Error{Kind: action.Auth, Message: l.notice})
	}

	actions := []action.Action{action.NavigateReplace{Kind: action.KindMenu}}
	if err := l.env.Session.Establish(data); err != nil {
		l.env.logger().Warn("session not persisted", "error", err)
		actions = append(actions, action.Error{Kind: action.Transient, Message: "logged in, but the session could not be saved"})
	}
	l.env.logger().Info("logged in", "handle", data.Handle, "service", data.Service)
	return action.Propagate(actions...)
}

func (l *Login) Render(width, height int) widget.Tree {
	labels := [fieldCount]string{"Handle or email", "App password", "Service"}
	form := widget.Form{}
	for i, b := range l.fields {
		form.Fields = append(form.Fields, widget.Field{
			Label:   labels[i],
			Value:   b.String(),
			Cursor:  b.Cursor(),
			Focused: i == l.focus && !l.busy,
			Masked:  i == fieldPassword,
		})
	}

	body := widget.Column{Children: []widget.Node{
		widget.Box{Title: "Sign in to Bluesky", Child: form, Focused: true},
	}}
	if l.busy {
		body.Children = append(body.Children, widget.Spinner{Label: "signing in..."})
	}

	return widget.Tree{
		Title:       "skycli",
		Body:        body,
		Notice:      l.notice,
		NoticeStyle: l.noticeStyle,
		Hints:       []keybinds.Action{keybinds.ActionSubmit, keybinds.ActionNextField, keybinds.ActionQuit},
	}
}
