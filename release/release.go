// Package release resolves the latest published release of a catalog
// repository into a normalized record.
package release

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scipunch/ethwatch/catalog"
	"github.com/scipunch/ethwatch/fetcher"
)

const defaultAPIBase = "https://api.github.com"

// Release is the normalized latest-release record of one repository.
type Release struct {
	Name        string
	Version     string
	PublishedAt time.Time
	URL         string
	Prerelease  bool
}

// Resolver maps catalog repositories to their latest release via the
// GitHub releases API.
type Resolver struct {
	client  *fetcher.Client
	apiBase string
}

// NewResolver creates a Resolver on top of the given fetch client.
func NewResolver(client *fetcher.Client) *Resolver {
	return &Resolver{client: client, apiBase: defaultAPIBase}
}

// NewResolverWithBase creates a Resolver against a non-default API base,
// used by tests to point at a stub server.
func NewResolverWithBase(client *fetcher.Client, apiBase string) *Resolver {
	return &Resolver{client: client, apiBase: apiBase}
}

// latestReleasePayload mirrors the fields of the GitHub latest-release
// response that the resolver uses. Timestamps stay strings so a missing or
// unparseable value can be dropped instead of failing the decode.
type latestReleasePayload struct {
	TagName     string `json:"tag_name"`
	PublishedAt string `json:"published_at"`
	HTMLURL     string `json:"html_url"`
	Prerelease  bool   `json:"prerelease"`
}

// LatestRelease returns the newest release of the repository, or nil when
// the repository has no releases, does not exist, or the fetch failed. It
// never returns an error: one unreachable repository must not abort a
// batch, so failures are logged here and swallowed.
func (r *Resolver) LatestRelease(ctx context.Context, repo catalog.Repo) *Release {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.apiBase, repo.Owner, repo.Name)

	var payload latestReleasePayload
	if err := r.client.FetchJSON(ctx, url, &payload); err != nil {
		if fetcher.IsAbsent(err) {
			slog.Debug("no releases", "repo", repo.Owner+"/"+repo.Name)
			return nil
		}
		slog.Warn("release fetch failed",
			"repo", repo.Owner+"/"+repo.Name, "error", err)
		return nil
	}

	// A payload missing any usable field is dropped rather than
	// propagated half-filled.
	if payload.TagName == "" || payload.PublishedAt == "" || payload.HTMLURL == "" {
		slog.Warn("release payload missing expected fields",
			"repo", repo.Owner+"/"+repo.Name)
		return nil
	}

	publishedAt, err := time.Parse(time.RFC3339, payload.PublishedAt)
	if err != nil {
		slog.Warn("release has unparseable publish time",
			"repo", repo.Owner+"/"+repo.Name, "published_at", payload.PublishedAt)
		return nil
	}

	return &Release{
		Name:        repo.DisplayName,
		Version:     payload.TagName,
		PublishedAt: publishedAt,
		URL:         payload.HTMLURL,
		Prerelease:  payload.Prerelease,
	}
}
