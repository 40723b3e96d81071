package keybinds

import (
	"reflect"
	"testing"
)

func TestKeymap_Lookup(t *testing.T) {
	k := NewKeymap()
	k.Register(ModeGlobal, "ctrl+c", ActionQuit)
	k.Register(ModeGlobal, "esc", ActionBack)
	k.Register(ModeFeed, "esc", ActionRefresh)
	k.Register(ModeFeed, "l", ActionLike)

	tests := []struct {
		name   string
		mode   Mode
		chord  string
		want   Action
		wantOK bool
	}{
		{"mode binding", ModeFeed, "l", ActionLike, true},
		{"mode overrides global", ModeFeed, "esc", ActionRefresh, true},
		{"global fallback", ModeFeed, "ctrl+c", ActionQuit, true},
		{"global in other mode", ModePost, "esc", ActionBack, true},
		{"not bound in other mode", ModePost, "l", "", false},
		{"unbound", ModeFeed, "x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := k.Lookup(tt.mode, tt.chord)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%s, %q) = (%v, %v), want (%v, %v)", tt.mode, tt.chord, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKeymap_IsPrefix(t *testing.T) {
	k := NewKeymap()
	k.Register(ModeFeed, "g  g", ActionGoToTop)
	k.Register(ModeGlobal, "ctrl+x ctrl+s", ActionSubmit)

	tests := []struct {
		mode Mode
		seq  string
		want bool
	}{
		{ModeFeed, "g", true},
		{ModeFeed, "g g", false},
		{ModePost, "g", false},
		{ModePost, "ctrl+x", true},
		{ModeFeed, "ctrl+x", true},
	}

	for _, tt := range tests {
		if got := k.IsPrefix(tt.mode, tt.seq); got != tt.want {
			t.Errorf("IsPrefix(%s, %q) = %v, want %v", tt.mode, tt.seq, got, tt.want)
		}
	}

	if action, ok := k.Lookup(ModeFeed, "g g"); !ok || action != ActionGoToTop {
		t.Errorf("Lookup(feed, \"g g\") = (%v, %v), want normalized sequence to match", action, ok)
	}
}

func TestKeymap_KeysFor(t *testing.T) {
	k := NewDefaultKeymap()

	got := k.KeysFor(ModeFeed, ActionNavigateDown)
	if want := []string{"down", "j"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KeysFor(feed, navigate_down) = %v, want %v", got, want)
	}

	if got := k.BindingString(ModeFeed, ActionQuit); got != "ctrl+c" {
		t.Errorf("BindingString(feed, quit) = %q, want global fallback ctrl+c", got)
	}

	if got := k.BindingString(ModeFeed, ActionNextField); got != "unbound" {
		t.Errorf("BindingString(feed, next_field) = %q, want unbound", got)
	}
}

func TestKeymap_CloneAndMerge(t *testing.T) {
	base := NewKeymap()
	base.Register(ModeFeed, "l", ActionLike)

	clone := base.Clone()
	clone.Register(ModeFeed, "l", ActionRepost)

	if got, _ := base.Lookup(ModeFeed, "l"); got != ActionLike {
		t.Errorf("Clone() shares state with original: got %v", got)
	}

	base.Merge(clone)
	if got, _ := base.Lookup(ModeFeed, "l"); got != ActionRepost {
		t.Errorf("Merge() = %v, want other to take precedence", got)
	}
}

func TestKeymap_Unregister(t *testing.T) {
	k := NewDefaultKeymap()
	k.Unregister(ModeFeed, "l")

	if k.HasBinding(ModeFeed, "l") {
		t.Error("Unregister() left binding in place")
	}
	k.Unregister(ModeFeed, "no-such-key")
}

func TestKeymap_Modes(t *testing.T) {
	k := NewKeymap()
	k.Register(ModeFeed, "l", ActionLike)
	k.Register(ModeGlobal, "ctrl+c", ActionQuit)
	k.Register(Mode("custom"), "x", ActionNoOp)

	got := k.Modes()
	want := []Mode{ModeGlobal, ModeFeed, Mode("custom")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Modes() = %v, want %v", got, want)
	}
}
