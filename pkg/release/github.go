package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/germanamz/herald/pkg/apiclient"
)

// DefaultGitHubURL is the public GitHub REST API root.
const DefaultGitHubURL = "https://api.github.com"

var _ Fetcher = (*GitHub)(nil)

// GitHub fetches releases from the GitHub REST API.
type GitHub struct {
	client *apiclient.Client
}

// NewGitHub creates a GitHub fetcher. An empty baseURL selects
// DefaultGitHubURL; an empty token makes unauthenticated requests.
func NewGitHub(baseURL, token string, client *http.Client) *GitHub {
	if baseURL == "" {
		baseURL = DefaultGitHubURL
	}

	c := apiclient.New(trimSlash(baseURL), apiclient.Auth{Key: token}, client)
	c.Headers = map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	c.HeaderParser = apiclient.ParseGitHubRateLimitHeaders

	return &GitHub{client: c}
}

// LastRateLimitInfo returns the rate limit state seen on the last fetch.
func (g *GitHub) LastRateLimitInfo() *apiclient.RateLimitInfo {
	return g.client.LastRateLimitInfo()
}

type apiRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// Fetch returns the release tagged tag, or the latest release when tag is
// empty.
func (g *GitHub) Fetch(ctx context.Context, repo, tag string) (Record, error) {
	if err := ValidateRepo(repo); err != nil {
		return Record{}, err
	}

	path := "/repos/" + repo + "/releases/latest"
	if tag != "" {
		path = "/repos/" + repo + "/releases/tags/" + url.PathEscape(tag)
	}

	var rel apiRelease
	if err := g.client.GetJSON(ctx, path, &rel); err != nil {
		var statusErr *apiclient.StatusError
		if errors.As(err, &statusErr) {
			return Record{}, fmt.Errorf("error fetching release from %s: %d %s",
				g.client.URL(path), statusErr.StatusCode, statusErr.StatusText())
		}
		return Record{}, fmt.Errorf("error fetching release from %s: %w", g.client.URL(path), err)
	}

	version, err := ExtractVersion(rel.TagName)
	if err != nil {
		return Record{}, err
	}

	return Record{
		TagName: rel.TagName,
		Version: version,
		URL:     rel.HTMLURL,
		Details: rel.Body,
	}, nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
