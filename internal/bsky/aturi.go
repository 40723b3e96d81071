package bsky

import (
	"fmt"
	"strings"
)

// ATURI is a parsed at:// record URI
type ATURI struct {
	Authority  string
	Collection string
	RKey       string
}

// ParseATURI splits an at://authority/collection/rkey URI
func ParseATURI(uri string) (ATURI, error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return ATURI{}, fmt.Errorf("not an AT URI: %s", uri)
	}
	parts := strings.SplitN(rest, "/", 3)
	if parts[0] == "" {
		return ATURI{}, fmt.Errorf("AT URI has no authority: %s", uri)
	}

	u := ATURI{Authority: parts[0]}
	if len(parts) > 1 {
		u.Collection = parts[1]
	}
	if len(parts) > 2 {
		u.RKey = parts[2]
	}
	return u, nil
}

// String formats the URI back to its at:// form
func (u ATURI) String() string {
	var b strings.Builder
	b.WriteString("at://")
	b.WriteString(u.Authority)
	if u.Collection != "" {
		b.WriteString("/" + u.Collection)
		if u.RKey != "" {
			b.WriteString("/" + u.RKey)
		}
	}
	return b.String()
}

// WebURL returns the bsky.app link for a post URI, used when yanking
func WebURL(uri, handle string) string {
	u, err := ParseATURI(uri)
	if err != nil || u.Collection != "app.bsky.feed.post" {
		return uri
	}
	who := handle
	if who == "" {
		who = u.Authority
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", who, u.RKey)
}
