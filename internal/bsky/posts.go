package bsky

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/skycli/internal/types"
)

const (
	collectionPost   = "app.bsky.feed.post"
	collectionLike   = "app.bsky.feed.like"
	collectionRepost = "app.bsky.feed.repost"

	typeEmbedRecord = "app.bsky.embed.record"
)

type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type replyRef struct {
	Root   types.PostRef `json:"root"`
	Parent types.PostRef `json:"parent"`
}

type postRecordOut struct {
	Type      string           `json:"$type"`
	Text      string           `json:"text"`
	CreatedAt string           `json:"createdAt"`
	Langs     []string         `json:"langs,omitempty"`
	Facets    []map[string]any `json:"facets,omitempty"`
	Reply     *replyRef        `json:"reply,omitempty"`
	Embed     map[string]any   `json:"embed,omitempty"`
}

type subjectRecord struct {
	Type      string        `json:"$type"`
	Subject   types.PostRef `json:"subject"`
	CreatedAt string        `json:"createdAt"`
}

// CreatePost publishes a draft and returns the new record's reference.
// Mention facets holding handles are resolved to DIDs; unresolvable ones are dropped.
func (c *Client) CreatePost(ctx context.Context, draft types.Draft) (types.PostRef, error) {
	d := c.session.Snapshot()
	if !d.Valid() {
		return types.PostRef{}, types.ErrNotAuthenticated
	}

	facets, err := c.resolveMentions(ctx, draft.Facets)
	if err != nil {
		return types.PostRef{}, err
	}

	record := postRecordOut{
		Type:      collectionPost,
		Text:      draft.Text,
		CreatedAt: c.now().UTC().Format(time.RFC3339Nano),
		Facets:    recordFacets(facets),
	}
	if draft.ReplyTo != nil {
		root := draft.Root
		if root == nil {
			root = draft.ReplyTo
		}
		record.Reply = &replyRef{Root: *root, Parent: *draft.ReplyTo}
	}
	if draft.Quote != nil {
		record.Embed = map[string]any{
			"$type":  typeEmbedRecord,
			"record": *draft.Quote,
		}
	}

	return c.createRecord(ctx, d.DID, collectionPost, record)
}

// React likes or reposts a post
func (c *Client) React(ctx context.Context, kind types.ReactionKind, subject types.PostRef) (types.PostRef, error) {
	d := c.session.Snapshot()
	if !d.Valid() {
		return types.PostRef{}, types.ErrNotAuthenticated
	}

	var collection string
	switch kind {
	case types.ReactionLike:
		collection = collectionLike
	case types.ReactionRepost:
		collection = collectionRepost
	default:
		return types.PostRef{}, fmt.Errorf("unsupported reaction %q", kind)
	}

	return c.createRecord(ctx, d.DID, collection, subjectRecord{
		Type:      collection,
		Subject:   subject,
		CreatedAt: c.now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *Client) createRecord(ctx context.Context, repo, collection string, record any) (types.PostRef, error) {
	var out createRecordResponse
	err := c.procedure(ctx, "com.atproto.repo.createRecord", createRecordRequest{
		Repo:       repo,
		Collection: collection,
		Record:     record,
	}, &out)
	if err != nil {
		return types.PostRef{}, err
	}
	c.logger.Info("record created", "collection", collection, "uri", out.URI)
	return types.PostRef{URI: out.URI, CID: out.CID}, nil
}

// ResolveHandle returns the DID of a handle
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	params := url.Values{}
	params.Set("handle", strings.TrimPrefix(handle, "@"))

	var out struct {
		DID string `json:"did"`
	}
	if err := c.query(ctx, "com.atproto.identity.resolveHandle", params, &out); err != nil {
		return "", err
	}
	return out.DID, nil
}

func (c *Client) resolveMentions(ctx context.Context, facets []types.Facet) ([]types.Facet, error) {
	var handles []string
	seen := make(map[string]bool)
	for _, f := range facets {
		if f.Kind == types.FacetMention && !strings.HasPrefix(f.Value, "did:") && !seen[f.Value] {
			seen[f.Value] = true
			handles = append(handles, f.Value)
		}
	}
	if len(handles) == 0 {
		return facets, nil
	}

	var mu sync.Mutex
	dids := make(map[string]string, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, handle := range handles {
		handle := handle
		g.Go(func() error {
			did, err := c.ResolveHandle(gctx, handle)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Debug("mention not resolved", "handle", handle, "error", err)
				return nil
			}
			mu.Lock()
			dids[handle] = did
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]types.Facet, 0, len(facets))
	for _, f := range facets {
		if f.Kind == types.FacetMention && !strings.HasPrefix(f.Value, "did:") {
			did := dids[f.Value]
			if did == "" {
				continue
			}
			f.Value = did
		}
		out = append(out, f)
	}
	return out, nil
}
