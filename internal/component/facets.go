package component

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/studiowebux/skycli/internal/types"
)

const maxTagLength = 64

var (
	mentionPattern = regexp.MustCompile(`(?:^|[\s(])(@[a-zA-Z0-9](?:[a-zA-Z0-9.-]*[a-zA-Z0-9])?)`)
	linkPattern    = regexp.MustCompile(`(?:^|[\s(])(https?://[^\s]+)`)
	tagPattern     = regexp.MustCompile(`(?:^|\s)([#＃][^\s#＃]+)`)
)

// DetectFacets finds mentions, links and tags in text. Offsets are UTF-8
// byte offsets into text; mention values are handles without the '@'.
func DetectFacets(text string) []types.Facet {
	var facets []types.Facet

	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		handle := text[start+1 : end]
		if !strings.Contains(handle, ".") {
			continue
		}
		facets = append(facets, types.Facet{Kind: types.FacetMention, ByteStart: start, ByteEnd: end, Value: handle})
	}

	for _, m := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		end = start + len(trimLink(text[start:end]))
		if end-start <= len("https://") {
			continue
		}
		facets = append(facets, types.Facet{Kind: types.FacetLink, ByteStart: start, ByteEnd: end, Value: text[start:end]})
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		_, hashSize := utf8.DecodeRuneInString(text[start:])
		tag := strings.TrimRightFunc(text[start+hashSize:end], unicode.IsPunct)
		if tag == "" || utf8.RuneCountInString(tag) > maxTagLength || isDigits(tag) {
			continue
		}
		facets = append(facets, types.Facet{Kind: types.FacetTag, ByteStart: start, ByteEnd: start + hashSize + len(tag), Value: tag})
	}

	sort.SliceStable(facets, func(i, j int) bool {
		return facets[i].ByteStart < facets[j].ByteStart
	})

	// drop facets overlapping an earlier one
	out := facets[:0]
	last := -1
	for _, f := range facets {
		if f.ByteStart < last {
			continue
		}
		out = append(out, f)
		last = f.ByteEnd
	}
	return out
}

// trimLink removes trailing punctuation that usually ends a sentence rather than a URL
func trimLink(link string) string {
	for {
		trimmed := strings.TrimRight(link, ".,;:!?\"'")
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if trimmed == link {
			return link
		}
		link = trimmed
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
