package keybinds

// NewDefaultKeymap creates a keymap with all default keybindings
func NewDefaultKeymap() *Keymap {
	k := NewKeymap()

	registerGlobalBindings(k)
	registerTextInputBindings(k, ModeLogin, ModeComposer, ModeFilter)
	registerLoginBindings(k)
	registerMenuBindings(k)
	registerFeedListBindings(k)
	registerPinnedBindings(k)
	registerFeedBindings(k)
	registerPostBindings(k)
	registerComposerBindings(k)
	registerFilterBindings(k)

	return k
}

// registerGlobalBindings sets up bindings available in all modes.
// Only non-printable chords belong here so text input modes keep every character.
func registerGlobalBindings(k *Keymap) {
	k.Register(ModeGlobal, "ctrl+c", ActionQuit)
	k.Register(ModeGlobal, "esc", ActionBack)
	k.Register(ModeGlobal, "f1", ActionHelp)
	k.Register(ModeGlobal, "ctrl+l", ActionDismiss)
}

// registerListNavigation sets up list movement shared by every list screen
func registerListNavigation(k *Keymap, mode Mode) {
	k.RegisterMultiple(mode, []string{"up", "k"}, ActionNavigateUp)
	k.RegisterMultiple(mode, []string{"down", "j"}, ActionNavigateDown)
	k.RegisterMultiple(mode, []string{"pgup", "ctrl+u"}, ActionPageUp)
	k.RegisterMultiple(mode, []string{"pgdown", "ctrl+d"}, ActionPageDown)
	k.RegisterMultiple(mode, []string{"g g", "home"}, ActionGoToTop)
	k.RegisterMultiple(mode, []string{"G", "end"}, ActionGoToBottom)
	k.Register(mode, "enter", ActionSelect)
	k.Register(mode, "?", ActionHelp)
}

// registerTextInputBindings sets up editing keys for modes that take typed text
func registerTextInputBindings(k *Keymap, modes ...Mode) {
	for _, mode := range modes {
		k.Register(mode, "backspace", ActionTextBackspace)
		k.Register(mode, "delete", ActionTextDelete)
		k.Register(mode, "left", ActionTextMoveLeft)
		k.Register(mode, "right", ActionTextMoveRight)
		k.RegisterMultiple(mode, []string{"home", "ctrl+a"}, ActionTextMoveHome)
		k.RegisterMultiple(mode, []string{"end", "ctrl+e"}, ActionTextMoveEnd)
		k.Register(mode, "ctrl+u", ActionTextClearBefore)
		k.Register(mode, "ctrl+k", ActionTextClearAfter)
	}
}

func registerLoginBindings(k *Keymap) {
	k.Register(ModeLogin, "enter", ActionSubmit)
	k.RegisterMultiple(ModeLogin, []string{"tab", "down"}, ActionNextField)
	k.RegisterMultiple(ModeLogin, []string{"shift+tab", "up"}, ActionPrevField)
}

func registerMenuBindings(k *Keymap) {
	registerListNavigation(k, ModeMenu)
	k.Register(ModeMenu, "q", ActionQuit)
	k.Register(ModeMenu, "c", ActionCompose)
}

func registerFeedListBindings(k *Keymap) {
	registerListNavigation(k, ModeFeedList)
	k.Register(ModeFeedList, "q", ActionBack)
	k.Register(ModeFeedList, "r", ActionRefresh)
	k.Register(ModeFeedList, "/", ActionFilter)
	k.Register(ModeFeedList, "p", ActionPin)
}

func registerPinnedBindings(k *Keymap) {
	registerListNavigation(k, ModePinned)
	k.Register(ModePinned, "q", ActionBack)
	k.RegisterMultiple(ModePinned, []string{"d", "delete"}, ActionUnpin)
}

func registerFeedBindings(k *Keymap) {
	registerListNavigation(k, ModeFeed)
	k.Register(ModeFeed, "q", ActionBack)
	k.Register(ModeFeed, "r", ActionRefresh)
	k.Register(ModeFeed, "c", ActionCompose)
	k.Register(ModeFeed, "l", ActionLike)
	k.Register(ModeFeed, "R", ActionRepost)
	k.Register(ModeFeed, "y", ActionYank)
}

func registerPostBindings(k *Keymap) {
	registerListNavigation(k, ModePost)
	k.Register(ModePost, "q", ActionBack)
	k.Register(ModePost, "l", ActionLike)
	k.Register(ModePost, "R", ActionRepost)
	k.Register(ModePost, "c", ActionReply)
	k.Register(ModePost, "Q", ActionQuote)
	k.Register(ModePost, "y", ActionYank)
	k.Register(ModePost, "r", ActionRefresh)
}

func registerComposerBindings(k *Keymap) {
	k.Register(ModeComposer, "enter", ActionTextNewline)
	k.RegisterMultiple(ModeComposer, []string{"ctrl+s", "alt+enter"}, ActionSubmit)
	k.Register(ModeComposer, "up", ActionNoOp)
	k.Register(ModeComposer, "down", ActionNoOp)
}

func registerFilterBindings(k *Keymap) {
	k.Register(ModeFilter, "enter", ActionSubmit)
	k.Register(ModeFilter, "up", ActionNavigateUp)
	k.Register(ModeFilter, "down", ActionNavigateDown)
}
