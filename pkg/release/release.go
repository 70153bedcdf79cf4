// Package release describes published software versions and fetches them
// from a source-control host.
package release

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Record is the normalized metadata of a published release.
type Record struct {
	TagName string // Tag as published, e.g. "v1.2.3".
	Version string // major.minor.patch extracted from TagName.
	URL     string // Canonical page for the release.
	Details string // Free-text release notes; may be empty.
}

// Fetcher returns the release for repo ("owner/name"). An empty tag
// selects the latest release.
type Fetcher interface {
	Fetch(ctx context.Context, repo, tag string) (Record, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, repo, tag string) (Record, error)

// Fetch calls the underlying function.
func (f FetcherFunc) Fetch(ctx context.Context, repo, tag string) (Record, error) {
	return f(ctx, repo, tag)
}

var (
	repoPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)
	versionPattern = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)
)

// ErrMissingRepo is returned by ValidateRepo for blank input.
var ErrMissingRepo = errors.New("missing repository name")

// ValidateRepo checks that repo has the "owner/name" shape.
func ValidateRepo(repo string) error {
	if strings.TrimSpace(repo) == "" {
		return ErrMissingRepo
	}

	if !repoPattern.MatchString(repo) {
		return fmt.Errorf("invalid repository name: %s", repo)
	}

	return nil
}

// ExtractVersion returns the first major.minor.patch triple in tag.
func ExtractVersion(tag string) (string, error) {
	m := versionPattern.FindStringSubmatch(tag)
	if m == nil {
		return "", fmt.Errorf("invalid tag name: %s. Tag name must contain a semver-formatted version number", tag)
	}

	return m[1], nil
}
