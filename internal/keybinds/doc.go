/*
Package keybinds turns key presses into named actions.

# Overview

Every screen of skycli reports an input Mode. A Keymap maps each mode to
chords and the chords to Action names; the Resolver feeds key presses
through the keymap and reports whether a binding matched, is still being
typed, or does not exist. Nothing in this package changes application
state.

# Key Concepts

Modes:
  - global: bindings available everywhere
  - login, composer, filter: text input modes, unbound keys become typed text
  - menu, feed_list, pinned, feed, post: list and view modes

Lookup order is exact mode first, then global. A mode binding for the same
chord overrides the global one.

Chords use bubbletea key names ("enter", "ctrl+c", "alt+enter", "G").
Sequences join chords with a single space ("g g").

# Components

Keymap (registry.go):
  - Storage for keybindings, built at startup and read-only afterwards
  - Lookup and prefix queries used by the Resolver

Resolver (resolver.go):
  - Tracks the partial sequence for the current mode
  - A chord that starts a longer sequence waits for the next key, even when
    the chord is also bound on its own
  - A pending sequence is dropped silently after the timeout or on a mode change

Validator (validator.go):
  - Unknown modes and actions, empty keys
  - ctrl+c must stay bound to quit
  - Global bindings must not start with a printable key
  - Bindings hidden by a longer sequence (errors)
  - Shadowing of global bindings (warnings)

# Configuration File Format

keybinds.json is JSON with comments:

	// skycli keybindings
	{
	  "version": "1.0",
	  "bindings": {
	    "feed": {
	      "o": "select",
	      "z z": "go_to_top",
	      "l": ""          // unbind
	    }
	  }
	}

# Example Usage

	keymap, err := keybinds.LoadOrDefault(path)
	if err != nil {
		return err
	}
	if result := keybinds.NewValidator().ValidateKeymap(keymap); result.HasErrors() {
		return fmt.Errorf("invalid keybindings:\n%s", result)
	}

	resolver := keybinds.NewResolver(keymap, time.Second)
	action, status := resolver.Resolve(keybinds.ModeFeed, "g", time.Now())
*/
package keybinds
