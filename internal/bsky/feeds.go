package bsky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/skycli/internal/feed"
	"github.com/studiowebux/skycli/internal/types"
)

const (
	// pageSize is the number of posts requested per page
	pageSize = 30
	// maxPages bounds how far back a fetch pages to reach the cursor
	maxPages = 3
	// maxGeneratorsPerCall is the getFeedGenerators batch limit
	maxGeneratorsPerCall = 25
)

type feedPage struct {
	Cursor string         `json:"cursor"`
	Feed   []feedViewPost `json:"feed"`
}

// FetchFeed returns the newest posts of a feed, newest first. The first page
// is always returned so counts of known posts stay fresh; further pages are
// read while they are still newer than cursor.
func (c *Client) FetchFeed(ctx context.Context, feed types.FeedDescriptor, cursor types.Cursor) ([]types.PostSummary, error) {
	nsid, params, err := feedRequest(feed)
	if err != nil {
		return nil, err
	}

	var posts []types.PostSummary
	seen := make(map[string]bool)
	next := ""

	for page := 0; page < maxPages; page++ {
		if next != "" {
			params.Set("cursor", next)
		}

		var out feedPage
		if err := c.query(ctx, nsid, params, &out); err != nil {
			return nil, err
		}

		reached := cursor.IsZero()
		for _, item := range out.Feed {
			p := item.summary()
			if seen[p.URI] {
				continue
			}
			seen[p.URI] = true
			posts = append(posts, p)
			if !p.SortAt().After(cursor.Newest) {
				reached = true
			}
		}

		if reached || out.Cursor == "" || len(out.Feed) == 0 {
			break
		}
		next = out.Cursor
	}

	return posts, nil
}

func feedRequest(feed types.FeedDescriptor) (string, url.Values, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))

	switch feed.Kind {
	case types.FeedTimeline:
		return "app.bsky.feed.getTimeline", params, nil
	case types.FeedGenerator:
		params.Set("feed", feed.URI)
		return "app.bsky.feed.getFeed", params, nil
	case types.FeedList:
		params.Set("list", feed.URI)
		return "app.bsky.feed.getListFeed", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported feed kind %q", feed.Kind)
	}
}

type preferencesResponse struct {
	Preferences []struct {
		Type  string `json:"$type"`
		Items []struct {
			Type   string `json:"type"`
			Value  string `json:"value"`
			Pinned bool   `json:"pinned"`
		} `json:"items"`
		// legacy savedFeedsPref
		Pinned []string `json:"pinned"`
		Saved  []string `json:"saved"`
		// feedViewPref
		Feed                    string `json:"feed"`
		HideReplies             bool   `json:"hideReplies"`
		HideRepliesByUnfollowed *bool  `json:"hideRepliesByUnfollowed"`
		HideRepliesByLikeCount  int    `json:"hideRepliesByLikeCount"`
		HideReposts             bool   `json:"hideReposts"`
		HideQuotePosts          bool   `json:"hideQuotePosts"`
	} `json:"preferences"`
}

// homeFeed is the feedViewPref key of the following timeline
const homeFeed = "home"

// FeedViewPreferences returns the server-side view preferences of the
// following timeline. An account that never set them gets the defaults.
func (c *Client) FeedViewPreferences(ctx context.Context) (feed.Preferences, error) {
	var prefs preferencesResponse
	if err := c.query(ctx, "app.bsky.actor.getPreferences", nil, &prefs); err != nil {
		return feed.Preferences{}, err
	}
	return parseFeedViewPref(prefs), nil
}

func parseFeedViewPref(prefs preferencesResponse) feed.Preferences {
	// hideRepliesByUnfollowed defaults to true in the lexicon
	out := feed.Preferences{HideRepliesByUnfollowed: true}
	for _, p := range prefs.Preferences {
		if p.Type != "app.bsky.actor.defs#feedViewPref" || p.Feed != homeFeed {
			continue
		}
		out = feed.Preferences{
			HideReposts:             p.HideReposts,
			HideReplies:             p.HideReplies,
			HideQuotePosts:          p.HideQuotePosts,
			HideRepliesByLikeCount:  p.HideRepliesByLikeCount,
			HideRepliesByUnfollowed: p.HideRepliesByUnfollowed == nil || *p.HideRepliesByUnfollowed,
		}
	}
	return out
}

type savedFeed struct {
	kind   types.FeedKind
	uri    string
	pinned bool
}

// SavedFeeds returns the user's saved feeds in their saved order, with the
// following timeline first. Generator and list details are looked up in parallel.
func (c *Client) SavedFeeds(ctx context.Context) ([]types.FeedDescriptor, error) {
	var prefs preferencesResponse
	if err := c.query(ctx, "app.bsky.actor.getPreferences", nil, &prefs); err != nil {
		return nil, err
	}

	saved := parseSavedFeeds(prefs)

	var generators, lists []string
	for _, s := range saved {
		switch s.kind {
		case types.FeedGenerator:
			generators = append(generators, s.uri)
		case types.FeedList:
			lists = append(lists, s.uri)
		}
	}

	var mu sync.Mutex
	byURI := make(map[string]types.FeedDescriptor)
	collect := func(m map[string]types.FeedDescriptor) {
		mu.Lock()
		defer mu.Unlock()
		for uri, d := range m {
			byURI[uri] = d
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(generators); start += maxGeneratorsPerCall {
		batch := generators[start:min(start+maxGeneratorsPerCall, len(generators))]
		g.Go(func() error {
			m, err := c.feedGenerators(gctx, batch)
			if err != nil {
				return err
			}
			collect(m)
			return nil
		})
	}
	for _, uri := range lists {
		uri := uri
		g.Go(func() error {
			d, err := c.list(gctx, uri)
			if err != nil {
				return err
			}
			collect(map[string]types.FeedDescriptor{uri: d})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feeds := []types.FeedDescriptor{types.Timeline()}
	for _, s := range saved {
		if s.kind == types.FeedTimeline {
			feeds[0].Pinned = s.pinned
			continue
		}
		d, ok := byURI[s.uri]
		if !ok {
			// deleted generator or list
			continue
		}
		d.Pinned = s.pinned
		feeds = append(feeds, d)
	}
	return feeds, nil
}

func parseSavedFeeds(prefs preferencesResponse) []savedFeed {
	var saved []savedFeed
	var legacy []savedFeed

	for _, p := range prefs.Preferences {
		switch p.Type {
		case "app.bsky.actor.defs#savedFeedsPrefV2":
			for _, item := range p.Items {
				kind := types.FeedKind("")
				switch item.Type {
				case "timeline":
					kind = types.FeedTimeline
				case "feed":
					kind = types.FeedGenerator
				case "list":
					kind = types.FeedList
				default:
					continue
				}
				saved = append(saved, savedFeed{kind: kind, uri: item.Value, pinned: item.Pinned})
			}
		case "app.bsky.actor.defs#savedFeedsPref":
			pinned := make(map[string]bool)
			for _, uri := range p.Pinned {
				pinned[uri] = true
			}
			for _, uri := range p.Saved {
				legacy = append(legacy, savedFeed{kind: kindFromURI(uri), uri: uri, pinned: pinned[uri]})
			}
		}
	}

	if len(saved) == 0 {
		return legacy
	}
	return saved
}

// kindFromURI infers the feed kind from an AT URI collection
func kindFromURI(uri string) types.FeedKind {
	u, err := ParseATURI(uri)
	if err == nil && u.Collection == "app.bsky.graph.list" {
		return types.FeedList
	}
	return types.FeedGenerator
}

type generatorView struct {
	URI         string      `json:"uri"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"description"`
	Creator     profileView `json:"creator"`
}

func (c *Client) feedGenerators(ctx context.Context, uris []string) (map[string]types.FeedDescriptor, error) {
	params := url.Values{}
	for _, uri := range uris {
		params.Add("feeds", uri)
	}

	var out struct {
		Feeds []generatorView `json:"feeds"`
	}
	if err := c.query(ctx, "app.bsky.feed.getFeedGenerators", params, &out); err != nil {
		return nil, err
	}

	m := make(map[string]types.FeedDescriptor, len(out.Feeds))
	for _, f := range out.Feeds {
		m[f.URI] = types.FeedDescriptor{
			Kind:        types.FeedGenerator,
			URI:         f.URI,
			DisplayName: f.DisplayName,
			Creator:     f.Creator.Handle,
			Description: f.Description,
		}
	}
	return m, nil
}

func (c *Client) list(ctx context.Context, uri string) (types.FeedDescriptor, error) {
	params := url.Values{}
	params.Set("list", uri)
	params.Set("limit", "1")

	var out struct {
		List struct {
			URI         string      `json:"uri"`
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Creator     profileView `json:"creator"`
		} `json:"list"`
	}
	if err := c.query(ctx, "app.bsky.graph.getList", params, &out); err != nil {
		return types.FeedDescriptor{}, err
	}

	return types.FeedDescriptor{
		Kind:        types.FeedList,
		URI:         uri,
		DisplayName: out.List.Name,
		Creator:     out.List.Creator.Handle,
		Description: out.List.Description,
	}, nil
}

type threadView struct {
	Type    string            `json:"$type"`
	Post    postView          `json:"post"`
	Parent  json.RawMessage   `json:"parent"`
	Replies []json.RawMessage `json:"replies"`
}

func decodeThreadView(raw json.RawMessage) (threadView, bool) {
	if len(raw) == 0 {
		return threadView{}, false
	}
	var tv threadView
	if err := json.Unmarshal(raw, &tv); err != nil || tv.Type != typeThreadViewPost {
		return threadView{}, false
	}
	return tv, true
}

// Thread loads a post with its ancestors, oldest first, and its direct replies
func (c *Client) Thread(ctx context.Context, uri string) (types.Thread, error) {
	params := url.Values{}
	params.Set("uri", uri)
	params.Set("depth", "1")

	var out struct {
		Thread json.RawMessage `json:"thread"`
	}
	if err := c.query(ctx, "app.bsky.feed.getPostThread", params, &out); err != nil {
		return types.Thread{}, err
	}

	root, ok := decodeThreadView(out.Thread)
	if !ok {
		return types.Thread{}, fmt.Errorf("post %s is not available", uri)
	}

	thread := types.Thread{Post: root.Post.summary()}

	for parent, ok := decodeThreadView(root.Parent); ok; parent, ok = decodeThreadView(parent.Parent) {
		thread.Parents = append([]types.PostSummary{parent.Post.summary()}, thread.Parents...)
	}
	if len(thread.Parents) > 0 {
		p := thread.Parents[len(thread.Parents)-1]
		thread.Post.Parent = &p
	}

	for _, raw := range root.Replies {
		if reply, ok := decodeThreadView(raw); ok {
			thread.Replies = append(thread.Replies, reply.Post.summary())
		}
	}
	return thread, nil
}
