package types

import (
	"errors"
	"time"
)

// Sentinel errors returned by the network layer and classified by callers
var (
	// ErrSessionInvalid means the stored tokens were rejected and cannot be refreshed
	ErrSessionInvalid = errors.New("session is no longer valid")

	// ErrInvalidCredentials means authentication was refused for the given identifier/password
	ErrInvalidCredentials = errors.New("invalid identifier or password")

	// ErrNotAuthenticated means an authenticated call was attempted without a session
	ErrNotAuthenticated = errors.New("not authenticated")
)

// FeedKind identifies where a feed's posts come from
type FeedKind string

const (
	FeedTimeline  FeedKind = "timeline"  // Following timeline
	FeedGenerator FeedKind = "generator" // Custom feed generator (app.bsky.feed.generator)
	FeedList      FeedKind = "list"      // List feed (app.bsky.graph.list)
)

// FeedID uniquely identifies a feed
type FeedID string

// TimelineID is the identifier of the home timeline
const TimelineID FeedID = "timeline"

// FeedDescriptor describes a feed that can be watched
type FeedDescriptor struct {
	Kind        FeedKind `json:"kind" yaml:"kind"`
	URI         string   `json:"uri,omitempty" yaml:"uri,omitempty"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Creator     string   `json:"creator,omitempty" yaml:"creator,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Pinned      bool     `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// Timeline returns the descriptor of the following timeline
func Timeline() FeedDescriptor {
	return FeedDescriptor{Kind: FeedTimeline, DisplayName: "Following"}
}

// ID returns the feed identifier; the timeline has a fixed ID, other feeds use their AT URI
func (d FeedDescriptor) ID() FeedID {
	if d.Kind == FeedTimeline || d.URI == "" {
		return TimelineID
	}
	return FeedID(d.URI)
}

// Title returns a human readable title for headers
func (d FeedDescriptor) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	if d.Kind == FeedTimeline {
		return "Following"
	}
	return d.URI
}

// Author is the minimal profile shown next to a post
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	// Following is set when the logged-in user follows this author
	Following bool `json:"following,omitempty"`
}

// Name returns the display name, falling back to the handle
func (a Author) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Handle
}

// PostRef is a strong reference to a record
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// IsZero reports whether the reference is empty
func (r PostRef) IsZero() bool {
	return r.URI == "" && r.CID == ""
}

// FacetKind is the feature type of a rich text facet
type FacetKind string

const (
	FacetMention FacetKind = "mention"
	FacetLink    FacetKind = "link"
	FacetTag     FacetKind = "tag"
)

// Facet annotates a byte range of post text. ByteStart/ByteEnd are UTF-8 offsets.
type Facet struct {
	Kind      FacetKind `json:"kind"`
	ByteStart int       `json:"byteStart"`
	ByteEnd   int       `json:"byteEnd"`
	// Value is the handle/DID for mentions, the URI for links and the tag without '#'
	Value string `json:"value"`
}

// Repost describes why a post appears in a feed when it was reposted
type Repost struct {
	By        Author    `json:"by"`
	IndexedAt time.Time `json:"indexedAt"`
}

// ExternalEmbed is an embedded link card
type ExternalEmbed struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ImageEmbed is one embedded image
type ImageEmbed struct {
	Alt   string `json:"alt,omitempty"`
	Thumb string `json:"thumb"`
}

// Embed holds the supported embed variants of a post
type Embed struct {
	Images   []ImageEmbed   `json:"images,omitempty"`
	External *ExternalEmbed `json:"external,omitempty"`
	Quote    *PostSummary   `json:"quote,omitempty"`
	// WithMedia is set for record-with-media embeds
	WithMedia bool `json:"withMedia,omitempty"`
}

// Viewer holds the authenticated user's relationship to a post
type Viewer struct {
	Like   string `json:"like,omitempty"`
	Repost string `json:"repost,omitempty"`
}

// PostSummary is the view of a post used by feeds and the post view
type PostSummary struct {
	URI         string       `json:"uri"`
	CID         string       `json:"cid"`
	Author      Author       `json:"author"`
	Text        string       `json:"text"`
	Facets      []Facet      `json:"facets,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	IndexedAt   time.Time    `json:"indexedAt"`
	ReplyCount  int          `json:"replyCount"`
	RepostCount int          `json:"repostCount"`
	LikeCount   int          `json:"likeCount"`
	QuoteCount  int          `json:"quoteCount"`
	Reason      *Repost      `json:"reason,omitempty"`
	Parent      *PostSummary `json:"parent,omitempty"`
	Embed       *Embed       `json:"embed,omitempty"`
	Viewer      Viewer       `json:"viewer"`
}

// ID returns the post identifier used for deduplication
func (p PostSummary) ID() string {
	return p.URI
}

// Ref returns a strong reference to the post
func (p PostSummary) Ref() PostRef {
	return PostRef{URI: p.URI, CID: p.CID}
}

// SortAt is the time a feed item is ordered by: the repost time for reposts, otherwise the index time
func (p PostSummary) SortAt() time.Time {
	if p.Reason != nil && !p.Reason.IndexedAt.IsZero() {
		return p.Reason.IndexedAt
	}
	return p.IndexedAt
}

// IsReply reports whether the post replies to another post
func (p PostSummary) IsReply() bool {
	return p.Parent != nil
}

// IsQuote reports whether the post embeds another record
func (p PostSummary) IsQuote() bool {
	return p.Embed != nil && p.Embed.Quote != nil
}

// Cursor tracks how far a feed subscription has read
type Cursor struct {
	// Newest is the sort time of the most recent item delivered so far
	Newest time.Time `json:"newest"`
}

// IsZero reports whether nothing has been read yet
func (c Cursor) IsZero() bool {
	return c.Newest.IsZero()
}

// Advance returns the cursor moved to the newest item in posts. It never moves backwards.
func (c Cursor) Advance(posts []PostSummary) Cursor {
	next := c
	for _, p := range posts {
		if at := p.SortAt(); at.After(next.Newest) {
			next.Newest = at
		}
	}
	return next
}

// ReactionKind is a reaction the user can leave on a post
type ReactionKind string

const (
	ReactionLike   ReactionKind = "like"
	ReactionRepost ReactionKind = "repost"
)

// Credentials are what the login form submits
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"-"`
	Service    string `json:"service,omitempty"`
}

// Draft is a post being composed
type Draft struct {
	Text    string   `json:"text"`
	Facets  []Facet  `json:"facets,omitempty"`
	ReplyTo *PostRef `json:"replyTo,omitempty"`
	// Root is the thread root when replying; equals ReplyTo for top-level replies
	Root  *PostRef `json:"root,omitempty"`
	Quote *PostRef `json:"quote,omitempty"`
}

// Thread is a post with its parent chain and direct replies
type Thread struct {
	Post    PostSummary   `json:"post"`
	Parents []PostSummary `json:"parents,omitempty"`
	Replies []PostSummary `json:"replies,omitempty"`
}
