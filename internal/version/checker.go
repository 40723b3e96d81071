// Package version looks up the latest published skycli release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// ReleasesURL is the GitHub API endpoint of the latest release
	ReleasesURL  = "https://api.github.com/repos/studiowebux/skycli/releases/latest"
	checkTimeout = 5 * time.Second
)

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Release describes the latest release relative to the running version
type Release struct {
	Version string
	URL     string
	Newer   bool
}

// Checker queries the release endpoint
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker creates a checker for the public releases endpoint
func NewChecker() *Checker {
	return &Checker{
		URL:    ReleasesURL,
		Client: &http.Client{Timeout: checkTimeout},
	}
}

// Latest fetches the latest release and compares it with current
func (c *Checker) Latest(ctx context.Context, current string) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Release{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "skycli/"+current)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var gh githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return Release{}, fmt.Errorf("failed to decode release: %w", err)
	}

	latest := strings.TrimPrefix(gh.TagName, "v")
	return Release{
		Version: latest,
		URL:     gh.HTMLURL,
		Newer:   latest != "" && Compare(latest, current) > 0,
	}, nil
}

// Compare orders two dotted versions numerically, ignoring a leading "v"
// and any pre-release or build suffix. Missing parts count as zero.
func Compare(a, b string) int {
	pa, pb := parts(a), parts(b)
	for len(pa) < len(pb) {
		pa = append(pa, 0)
	}
	for len(pb) < len(pa) {
		pb = append(pb, 0)
	}
	for i := range pa {
		switch {
		case pa[i] > pb[i]:
			return 1
		case pa[i] < pb[i]:
			return -1
		}
	}
	return 0
}

func parts(v string) []int {
	v = strings.TrimPrefix(v, "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	var out []int
	for _, field := range strings.Split(v, ".") {
		// non numeric parts are skipped
		if n, err := strconv.Atoi(field); err == nil {
			out = append(out, n)
		}
	}
	return out
}
