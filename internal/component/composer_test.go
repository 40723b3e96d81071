package component

import (
	"strings"
	"testing"

	"github.com/studiowebux/skycli/internal/action"
	"github.com/studiowebux/skycli/internal/keybinds"
	"github.com/studiowebux/skycli/internal/types"
)

func TestComposer_Submit(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		postErr    error
		wantNotice string
		wantPosted bool
		wantPop    bool
	}{
		{name: "empty buffer", text: "", wantNotice: "post is empty"},
		{name: "whitespace only", text: "  \n ", wantNotice: "post is empty"},
		{name: "over the limit", text: strings.Repeat("a", MaxPostGraphemes+1), wantNotice: "post is 301 characters, the limit is 300"},
		{name: "at the limit", text: strings.Repeat("é", MaxPostGraphemes), wantPosted: true, wantPop: true},
		{name: "network failure keeps the view", text: "hello", postErr: errBoom, wantNotice: "not posted, your text is kept", wantPosted: false},
		{name: "valid post pops", text: "hello @bob.test", wantPosted: true, wantPop: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t)
			te.network.postErr = tt.postErr

			c := NewComposer(te.Env, nil, nil, nil)
			c.Activate()
			c.Handle(typeText(tt.text))

			out := c.Handle(command(keybinds.ActionSubmit))
			if len(out.Actions()) != 0 {
				t.Fatalf("submit propagated %v; validation must stay local", out.Actions())
			}

			if len(te.tasks.pending) == 1 {
				out = c.Handle(te.tasks.run(t))
			}

			gotPop := len(out.Actions()) == 1 && out.Actions()[0] == action.NavigatePop{}
			if gotPop != tt.wantPop {
				t.Errorf("pop = %v, want %v (actions %v)", gotPop, tt.wantPop, out.Actions())
			}
			if got := len(te.network.posted) == 1; got != tt.wantPosted {
				t.Errorf("posted = %v, want %v", got, tt.wantPosted)
			}
			if c.notice != tt.wantNotice {
				t.Errorf("notice = %q, want %q", c.notice, tt.wantNotice)
			}
			if tt.postErr != nil {
				e, ok := only(t, out).(action.Error)
				if !ok || e.Kind != action.Transient {
					t.Errorf("failure propagated %#v, want a transient error", out.Actions())
				}
			}
		})
	}
}

func TestComposer_PostCarriesFacetsAndRefs(t *testing.T) {
	te := newTestEnv(t)
	parent := post("at://parent", 0)
	root := post("at://root", -10)

	c := NewComposer(te.Env, &parent, &root, nil)
	c.Handle(typeText("hi @bob.test see https://example.com #go"))
	c.Handle(command(keybinds.ActionSubmit))
	out := c.Handle(te.tasks.run(t))
	if only(t, out) != (action.NavigatePop{}) {
		t.Fatalf("propagated %v", out.Actions())
	}

	d := te.network.posted[0]
	if d.ReplyTo == nil || d.ReplyTo.URI != "at://parent" || d.Root == nil || d.Root.URI != "at://root" {
		t.Errorf("reply refs = %+v / %+v", d.ReplyTo, d.Root)
	}
	var kinds []string
	for _, f := range d.Facets {
		kinds = append(kinds, string(f.Kind)+"="+f.Value)
	}
	want := "mention=bob.test,link=https://example.com,tag=go"
	if strings.Join(kinds, ",") != want {
		t.Errorf("facets = %v, want %s", kinds, want)
	}

	if len(te.store.sent) != 1 || te.store.sent[0].ReplyTo != "at://parent" {
		t.Errorf("sent posts = %+v", te.store.sent)
	}
	if actions := c.Deactivate(); len(actions) != 0 || len(te.store.drafts) != 0 {
		t.Errorf("a sent post must not leave a draft: %v %v", actions, te.store.drafts)
	}
}

func TestComposer_ReplyRootDefaultsToParent(t *testing.T) {
	te := newTestEnv(t)
	parent := post("at://parent", 0)

	d := NewComposer(te.Env, &parent, nil, nil).draft()
	if d.Root == nil || *d.Root != parent.Ref() {
		t.Errorf("Root = %+v, want the parent", d.Root)
	}
}

func TestComposer_Drafts(t *testing.T) {
	te := newTestEnv(t)
	quoted := post("at://quoted", 0)

	c := NewComposer(te.Env, nil, nil, &quoted)
	c.Activate()
	c.Handle(typeText("half written"))
	c.Handle(command(keybinds.ActionTextNewline))
	c.Handle(typeText("thought"))
	c.Deactivate()

	saved, ok := te.store.drafts["quote:at://quoted"]
	if !ok || saved.Text != "half written\nthought" || saved.Quote == nil {
		t.Fatalf("draft = %+v, %v", saved, ok)
	}

	again := NewComposer(te.Env, nil, nil, &quoted)
	again.Activate()
	if again.Text() != "half written\nthought" {
		t.Errorf("restored text = %q", again.Text())
	}

	other := NewComposer(te.Env, nil, nil, nil)
	other.Activate()
	if other.Text() != "" {
		t.Errorf("a new post must not pick up the quote draft: %q", other.Text())
	}

	// clearing the text removes the draft
	for n := len([]rune(again.Text())); n > 0; n-- {
		again.Handle(command(keybinds.ActionTextBackspace))
	}
	again.Deactivate()
	if _, ok := te.store.drafts["quote:at://quoted"]; ok {
		t.Error("empty text should delete the draft")
	}
}

func TestComposer_BackWhilePosting(t *testing.T) {
	te := newTestEnv(t)

	c := NewComposer(te.Env, nil, nil, nil)
	c.Activate()
	c.Handle(typeText("in flight"))
	c.Handle(command(keybinds.ActionSubmit))

	out := c.Handle(command(keybinds.ActionBack))
	if out.IsIgnored() || len(out.Actions()) != 0 {
		t.Fatalf("back while posting = %s %v, want consumed", out, out.Actions())
	}

	// the screen can still be torn down, as on quit
	c.Deactivate()
	if len(te.store.drafts) != 0 {
		t.Errorf("text being posted must not be kept as a draft: %v", te.store.drafts)
	}

	out = c.Handle(te.tasks.run(t))
	if only(t, out) != (action.NavigatePop{}) {
		t.Errorf("propagated %v", out.Actions())
	}
	if out = c.Handle(command(keybinds.ActionBack)); !out.IsIgnored() {
		t.Errorf("back after the result = %s, want ignored", out)
	}
}

func TestComposer_Render(t *testing.T) {
	te := newTestEnv(t)
	parent := types.PostSummary{URI: "at://p", Author: types.Author{Handle: "bob.test"}, Text: "original"}

	c := NewComposer(te.Env, &parent, nil, nil)
	c.Handle(typeText("reply #tag"))

	tree := c.Render(80, 24)
	for _, want := range []string{"Reply to @bob.test", "original", "reply #tag", "10/300"} {
		if !tree.Contains(want) {
			t.Errorf("render missing %q", want)
		}
	}
}
