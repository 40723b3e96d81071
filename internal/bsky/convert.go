package bsky

import (
	"encoding/json"
	"time"

	"github.com/studiowebux/skycli/internal/types"
)

// Lexicon $type values used by the conversions below
const (
	typeReasonRepost         = "app.bsky.feed.defs#reasonRepost"
	typeFacetMention         = "app.bsky.richtext.facet#mention"
	typeFacetLink            = "app.bsky.richtext.facet#link"
	typeFacetTag             = "app.bsky.richtext.facet#tag"
	typeEmbedImagesView      = "app.bsky.embed.images#view"
	typeEmbedExternalView    = "app.bsky.embed.external#view"
	typeEmbedRecordView      = "app.bsky.embed.record#view"
	typeEmbedRecordMediaView = "app.bsky.embed.recordWithMedia#view"
	typeEmbedViewRecord      = "app.bsky.embed.record#viewRecord"
	typeThreadViewPost       = "app.bsky.feed.defs#threadViewPost"
)

type profileView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Viewer      struct {
		Following string `json:"following"`
	} `json:"viewer"`
}

func (p profileView) author() types.Author {
	return types.Author{
		DID:         p.DID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		Following:   p.Viewer.Following != "",
	}
}

type facetView struct {
	Index struct {
		ByteStart int `json:"byteStart"`
		ByteEnd   int `json:"byteEnd"`
	} `json:"index"`
	Features []struct {
		Type string `json:"$type"`
		DID  string `json:"did"`
		URI  string `json:"uri"`
		Tag  string `json:"tag"`
	} `json:"features"`
}

type postRecord struct {
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	Facets    []facetView `json:"facets"`
}

type postView struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	Author      profileView     `json:"author"`
	Record      postRecord      `json:"record"`
	Embed       json.RawMessage `json:"embed"`
	ReplyCount  int             `json:"replyCount"`
	RepostCount int             `json:"repostCount"`
	LikeCount   int             `json:"likeCount"`
	QuoteCount  int             `json:"quoteCount"`
	IndexedAt   time.Time       `json:"indexedAt"`
	Viewer      struct {
		Like   string `json:"like"`
		Repost string `json:"repost"`
	} `json:"viewer"`
}

type feedViewPost struct {
	Post  postView `json:"post"`
	Reply *struct {
		Parent json.RawMessage `json:"parent"`
	} `json:"reply"`
	Reason *struct {
		Type      string      `json:"$type"`
		By        profileView `json:"by"`
		IndexedAt time.Time   `json:"indexedAt"`
	} `json:"reason"`
}

func (p postView) summary() types.PostSummary {
	s := types.PostSummary{
		URI:         p.URI,
		CID:         p.CID,
		Author:      p.Author.author(),
		Text:        p.Record.Text,
		Facets:      convertFacets(p.Record.Facets),
		CreatedAt:   p.Record.CreatedAt,
		IndexedAt:   p.IndexedAt,
		ReplyCount:  p.ReplyCount,
		RepostCount: p.RepostCount,
		LikeCount:   p.LikeCount,
		QuoteCount:  p.QuoteCount,
		Embed:       convertEmbed(p.Embed),
		Viewer:      types.Viewer{Like: p.Viewer.Like, Repost: p.Viewer.Repost},
	}
	return s
}

func (f feedViewPost) summary() types.PostSummary {
	s := f.Post.summary()
	if f.Reason != nil && f.Reason.Type == typeReasonRepost {
		s.Reason = &types.Repost{By: f.Reason.By.author(), IndexedAt: f.Reason.IndexedAt}
	}
	if f.Reply != nil {
		if parent, ok := decodePostView(f.Reply.Parent); ok {
			p := parent.summary()
			s.Parent = &p
		} else {
			// parent is blocked or deleted; still a reply
			s.Parent = &types.PostSummary{}
		}
	}
	return s
}

// decodePostView reads a union member that may be a postView, notFoundPost or blockedPost
func decodePostView(raw json.RawMessage) (postView, bool) {
	if len(raw) == 0 {
		return postView{}, false
	}
	var pv postView
	if err := json.Unmarshal(raw, &pv); err != nil || pv.CID == "" {
		return postView{}, false
	}
	return pv, true
}

func convertFacets(in []facetView) []types.Facet {
	var out []types.Facet
	for _, f := range in {
		for _, feat := range f.Features {
			facet := types.Facet{ByteStart: f.Index.ByteStart, ByteEnd: f.Index.ByteEnd}
			switch feat.Type {
			case typeFacetMention:
				facet.Kind, facet.Value = types.FacetMention, feat.DID
			case typeFacetLink:
				facet.Kind, facet.Value = types.FacetLink, feat.URI
			case typeFacetTag:
				facet.Kind, facet.Value = types.FacetTag, feat.Tag
			default:
				continue
			}
			out = append(out, facet)
		}
	}
	return out
}

type embedView struct {
	Type   string `json:"$type"`
	Images []struct {
		Thumb string `json:"thumb"`
		Alt   string `json:"alt"`
	} `json:"images"`
	External *struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"external"`
	Record json.RawMessage `json:"record"`
	Media  json.RawMessage `json:"media"`
}

type viewRecord struct {
	Type      string      `json:"$type"`
	URI       string      `json:"uri"`
	CID       string      `json:"cid"`
	Author    profileView `json:"author"`
	Value     postRecord  `json:"value"`
	IndexedAt time.Time   `json:"indexedAt"`
}

func convertEmbed(raw json.RawMessage) *types.Embed {
	if len(raw) == 0 {
		return nil
	}
	var ev embedView
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil
	}

	embed := &types.Embed{}
	switch ev.Type {
	case typeEmbedImagesView:
		for _, img := range ev.Images {
			embed.Images = append(embed.Images, types.ImageEmbed{Thumb: img.Thumb, Alt: img.Alt})
		}
	case typeEmbedExternalView:
		if ev.External == nil {
			return nil
		}
		embed.External = &types.ExternalEmbed{URI: ev.External.URI, Title: ev.External.Title, Description: ev.External.Description}
	case typeEmbedRecordView:
		embed.Quote = convertQuote(ev.Record)
	case typeEmbedRecordMediaView:
		// record is itself a record#view wrapping the viewRecord
		var inner struct {
			Record json.RawMessage `json:"record"`
		}
		if json.Unmarshal(ev.Record, &inner) == nil {
			embed.Quote = convertQuote(inner.Record)
		}
		if media := convertEmbed(ev.Media); media != nil {
			embed.Images = media.Images
			embed.External = media.External
		}
		embed.WithMedia = true
	default:
		return nil
	}
	return embed
}

func convertQuote(raw json.RawMessage) *types.PostSummary {
	var vr viewRecord
	if err := json.Unmarshal(raw, &vr); err != nil || vr.Type != typeEmbedViewRecord {
		return nil
	}
	return &types.PostSummary{
		URI:       vr.URI,
		CID:       vr.CID,
		Author:    vr.Author.author(),
		Text:      vr.Value.Text,
		Facets:    convertFacets(vr.Value.Facets),
		CreatedAt: vr.Value.CreatedAt,
		IndexedAt: vr.IndexedAt,
	}
}

// recordFacets converts facets to the lexicon form used in new records
func recordFacets(in []types.Facet) []map[string]any {
	var out []map[string]any
	for _, f := range in {
		feature := map[string]any{}
		switch f.Kind {
		case types.FacetMention:
			feature["$type"], feature["did"] = typeFacetMention, f.Value
		case types.FacetLink:
			feature["$type"], feature["uri"] = typeFacetLink, f.Value
		case types.FacetTag:
			feature["$type"], feature["tag"] = typeFacetTag, f.Value
		default:
			continue
		}
		out = append(out, map[string]any{
			"index":    map[string]int{"byteStart": f.ByteStart, "byteEnd": f.ByteEnd},
			"features": []map[string]any{feature},
		})
	}
	return out
}
