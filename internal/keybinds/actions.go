package keybinds

// Action is the name of a command a key chord is bound to
type Action string

// Mode is the input mode in which a binding is active. Every component
// reports the mode it is in; ModeGlobal bindings apply in all modes.
type Mode string

const (
	ModeGlobal   Mode = "global"    // Available everywhere
	ModeLogin    Mode = "login"     // Login form
	ModeMenu     Mode = "menu"      // Main menu
	ModeFeedList Mode = "feed_list" // Saved feeds list
	ModePinned   Mode = "pinned"    // Locally pinned feeds
	ModeFeed     Mode = "feed"      // Single feed
	ModePost     Mode = "post"      // Post detail
	ModeComposer Mode = "composer"  // Post composer
	ModeFilter   Mode = "filter"    // Inline filter prompt (feed list)
)

// AllModes lists every mode in display order
var AllModes = []Mode{
	ModeGlobal,
	ModeLogin,
	ModeMenu,
	ModeFeedList,
	ModePinned,
	ModeFeed,
	ModePost,
	ModeComposer,
	ModeFilter,
}

// IsTextInput reports whether keys without a binding are typed into a buffer in this mode
func (m Mode) IsTextInput() bool {
	switch m {
	case ModeLogin, ModeComposer, ModeFilter:
		return true
	}
	return false
}

const (
	// Global actions
	ActionQuit    Action = "quit"    // Quit application
	ActionBack    Action = "back"    // Leave the current screen
	ActionHelp    Action = "help"    // Toggle key help
	ActionDismiss Action = "dismiss" // Dismiss the error banner

	// Navigation actions
	ActionNavigateUp   Action = "navigate_up"   // Move up one item
	ActionNavigateDown Action = "navigate_down" // Move down one item
	ActionPageUp       Action = "page_up"       // Move up one page
	ActionPageDown     Action = "page_down"     // Move down one page
	ActionGoToTop      Action = "go_to_top"     // Go to top
	ActionGoToBottom   Action = "go_to_bottom"  // Go to bottom
	ActionSelect       Action = "select"        // Open the selected item

	// Feed actions
	ActionRefresh Action = "refresh" // Fetch now instead of waiting for the next poll
	ActionCompose Action = "compose" // Open the composer
	ActionFilter  Action = "filter"  // Start filtering the list
	ActionPin     Action = "pin"     // Pin the selected feed
	ActionUnpin   Action = "unpin"   // Unpin the selected feed

	// Post actions
	ActionLike   Action = "like"   // Like the post
	ActionRepost Action = "repost" // Repost the post
	ActionReply  Action = "reply"  // Reply to the post
	ActionQuote  Action = "quote"  // Quote the post
	ActionYank   Action = "yank"   // Copy the post URL to the clipboard

	// Form actions
	ActionSubmit    Action = "submit"     // Submit the form
	ActionNextField Action = "next_field" // Focus next form field
	ActionPrevField Action = "prev_field" // Focus previous form field

	// Text editing actions (text input modes)
	ActionTextBackspace   Action = "text_backspace"    // Delete char before cursor
	ActionTextDelete      Action = "text_delete"       // Delete char at cursor
	ActionTextMoveLeft    Action = "text_move_left"    // Move cursor left
	ActionTextMoveRight   Action = "text_move_right"   // Move cursor right
	ActionTextMoveHome    Action = "text_move_home"    // Move cursor to start of line
	ActionTextMoveEnd     Action = "text_move_end"     // Move cursor to end of line
	ActionTextNewline     Action = "text_newline"      // Insert a line break
	ActionTextClearBefore Action = "text_clear_before" // Clear before cursor
	ActionTextClearAfter  Action = "text_clear_after"  // Clear after cursor

	// ActionNoOp swallows a key without doing anything
	ActionNoOp Action = "noop"
)

// knownActions is used by the validator to flag typos in keybinds.json
var knownActions = map[Action]bool{
	ActionQuit: true, ActionBack: true, ActionHelp: true, ActionDismiss: true,
	ActionNavigateUp: true, ActionNavigateDown: true, ActionPageUp: true, ActionPageDown: true,
	ActionGoToTop: true, ActionGoToBottom: true, ActionSelect: true,
	ActionRefresh: true, ActionCompose: true, ActionFilter: true, ActionPin: true, ActionUnpin: true,
	ActionLike: true, ActionRepost: true, ActionReply: true, ActionQuote: true, ActionYank: true,
	ActionSubmit: true, ActionNextField: true, ActionPrevField: true,
	ActionTextBackspace: true, ActionTextDelete: true, ActionTextMoveLeft: true, ActionTextMoveRight: true,
	ActionTextMoveHome: true, ActionTextMoveEnd: true, ActionTextNewline: true,
	ActionTextClearBefore: true, ActionTextClearAfter: true,
	ActionNoOp: true,
}

// IsKnown reports whether the action name is one the application handles
func (a Action) IsKnown() bool {
	return knownActions[a]
}

// isKnownMode reports whether m is a mode components can be in
func isKnownMode(m Mode) bool {
	for _, known := range AllModes {
		if known == m {
			return true
		}
	}
	return false
}

// Key is a single key press as delivered by the terminal layer
type Key struct {
	// Name is the chord in bubbletea notation: "a", "enter", "ctrl+c", "alt+x"
	Name string
	// Runes holds the typed characters for printable input (may be several when pasting)
	Runes []rune
	// Paste is set for bracketed paste input
	Paste bool
}

// Printable reports whether the key carries text to insert
func (k Key) Printable() bool {
	return len(k.Runes) > 0
}
