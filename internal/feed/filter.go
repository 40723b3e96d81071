package feed

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
	"github.com/studiowebux/skycli/internal/types"
)

// Preferences are the feed view preferences applied to the following timeline
type Preferences struct {
	HideReposts    bool `yaml:"hide_reposts" json:"hideReposts"`
	HideReplies    bool `yaml:"hide_replies" json:"hideReplies"`
	HideQuotePosts bool `yaml:"hide_quote_posts" json:"hideQuotePosts"`
	// HideRepliesByLikeCount hides replies with fewer likes
	HideRepliesByLikeCount int `yaml:"hide_replies_by_like_count" json:"hideRepliesByLikeCount"`
	// HideRepliesByUnfollowed hides replies to authors the user does not follow
	HideRepliesByUnfollowed bool `yaml:"hide_replies_by_unfollowed" json:"hideRepliesByUnfollowed"`
}

// Merge combines two sets of preferences. A post hidden by either stays hidden.
func (prefs Preferences) Merge(other Preferences) Preferences {
	return Preferences{
		HideReposts:             prefs.HideReposts || other.HideReposts,
		HideReplies:             prefs.HideReplies || other.HideReplies,
		HideQuotePosts:          prefs.HideQuotePosts || other.HideQuotePosts,
		HideRepliesByLikeCount:  max(prefs.HideRepliesByLikeCount, other.HideRepliesByLikeCount),
		HideRepliesByUnfollowed: prefs.HideRepliesByUnfollowed || other.HideRepliesByUnfollowed,
	}
}

// Filter decides which posts of a feed are shown
type Filter struct {
	prefs      Preferences
	expression string
	query      *jmespath.JMESPath
}

// NewFilter builds a filter from view preferences and an optional JMESPath
// predicate evaluated against each post's JSON form
func NewFilter(prefs Preferences, expression string) (*Filter, error) {
	f := &Filter{prefs: prefs, expression: expression}
	if expression != "" {
		jp, err := jmespath.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
		}
		f.query = jp
	}
	return f, nil
}

// Preferences returns the view preferences the filter applies
func (f *Filter) Preferences() Preferences {
	return f.prefs
}

// Expression returns the JMESPath predicate, or ""
func (f *Filter) Expression() string {
	return f.expression
}

// Keep reports whether a post passes the filter
func (f *Filter) Keep(p types.PostSummary) bool {
	if !f.prefs.keep(p) {
		return false
	}
	if f.query == nil {
		return true
	}
	ok, err := f.match(p)
	return err == nil && ok
}

// Apply returns the posts that pass the filter, preserving order
func (f *Filter) Apply(posts []types.PostSummary) []types.PostSummary {
	out := make([]types.PostSummary, 0, len(posts))
	for _, p := range posts {
		if f.Keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (prefs Preferences) keep(p types.PostSummary) bool {
	if p.Reason != nil {
		return !prefs.HideReposts
	}
	if p.IsReply() {
		// replies to one's own thread stay visible
		self := p.Parent.Author.DID == p.Author.DID
		switch {
		case prefs.HideReplies:
			return self
		case p.LikeCount < prefs.HideRepliesByLikeCount:
			return self
		case prefs.HideRepliesByUnfollowed:
			return self || p.Parent.Author.Following
		}
		return true
	}
	if p.IsQuote() {
		return !prefs.HideQuotePosts
	}
	return true
}

func (f *Filter) match(p types.PostSummary) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}

	result, err := f.query.Search(doc)
	if err != nil {
		return false, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return truthy(result), nil
}

// truthy follows JMESPath truthiness: false, null and empty values are false
func truthy(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
