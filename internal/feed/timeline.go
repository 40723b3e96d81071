// Package feed keeps the ordered post list behind a feed view and decides
// which posts are shown.
package feed

import (
	"github.com/studiowebux/skycli/internal/types"
)

// Timeline is an ordered set of posts keyed by URI, most recent first
type Timeline struct {
	order []string
	posts map[string]types.PostSummary
}

// NewTimeline creates an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{posts: make(map[string]types.PostSummary)}
}

// Merge applies one fetched batch (newest first) and returns how many posts
// were added or moved to the head.
//
// Unseen posts are placed at the head in the batch's relative order. A post
// already present is updated in place, unless the new copy is a repost newer
// than the one shown, in which case it moves to the head with the unseen posts.
// Delivering the same batch twice leaves the order unchanged.
func (t *Timeline) Merge(batch []types.PostSummary) int {
	var head []string
	moved := make(map[string]bool)
	inBatch := make(map[string]bool, len(batch))

	for _, post := range batch {
		id := post.ID()
		if id == "" || inBatch[id] {
			continue
		}
		inBatch[id] = true

		current, seen := t.posts[id]
		if seen && !isNewerRepost(current, post) {
			// keep the reason the post is listed under
			post.Reason = current.Reason
			t.posts[id] = post
			continue
		}
		if seen {
			moved[id] = true
		}
		t.posts[id] = post
		head = append(head, id)
	}

	if len(head) == 0 {
		return 0
	}

	order := make([]string, 0, len(head)+len(t.order))
	order = append(order, head...)
	for _, id := range t.order {
		if !moved[id] {
			order = append(order, id)
		}
	}
	t.order = order
	return len(head)
}

// isNewerRepost reports whether next is a repost of current that happened later
func isNewerRepost(current, next types.PostSummary) bool {
	if next.Reason == nil {
		return false
	}
	if current.Reason == nil {
		return true
	}
	return current.Reason.IndexedAt.Before(next.Reason.IndexedAt)
}

// Update replaces a post that is already in the timeline without moving it.
// It reports whether the post was found.
func (t *Timeline) Update(post types.PostSummary) bool {
	if _, ok := t.posts[post.ID()]; !ok {
		return false
	}
	t.posts[post.ID()] = post
	return true
}

// Len returns the number of posts
func (t *Timeline) Len() int {
	return len(t.order)
}

// Get returns a post by URI
func (t *Timeline) Get(uri string) (types.PostSummary, bool) {
	p, ok := t.posts[uri]
	return p, ok
}

// Index returns the position of a post, or -1
func (t *Timeline) Index(uri string) int {
	for i, id := range t.order {
		if id == uri {
			return i
		}
	}
	return -1
}

// Newest returns the head post
func (t *Timeline) Newest() (types.PostSummary, bool) {
	if len(t.order) == 0 {
		return types.PostSummary{}, false
	}
	return t.posts[t.order[0]], true
}

// Posts returns the posts in display order
func (t *Timeline) Posts() []types.PostSummary {
	out := make([]types.PostSummary, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.posts[id])
	}
	return out
}

// Visible returns the posts the filter keeps, in display order. A nil filter keeps everything.
func (t *Timeline) Visible(f *Filter) []types.PostSummary {
	posts := t.Posts()
	if f == nil {
		return posts
	}
	return f.Apply(posts)
}
