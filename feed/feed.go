// Package feed resolves RSS/Atom feeds into normalized post records.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/scipunch/ethwatch/catalog"
	"github.com/scipunch/ethwatch/fetcher"
)

// AcceptHeader is the Accept value for feed endpoints, which serve XML
// rather than the versioned JSON media type.
const AcceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

// Post is a normalized feed item.
type Post struct {
	FeedName    string
	Title       string
	Link        string
	PublishedAt time.Time
	Description string
	Categories  []string
}

// Resolver fetches and parses feeds. Unlike the release resolver it
// surfaces fetch failures: the batch driver decides whether to skip the
// feed and continue.
type Resolver struct {
	client *fetcher.Client
	parser *gofeed.Parser
}

// NewResolver creates a Resolver on top of the given fetch client. The
// client should be unauthenticated; feed hosts have no use for the API
// credential.
func NewResolver(client *fetcher.Client) *Resolver {
	return &Resolver{
		client: client,
		parser: gofeed.NewParser(),
	}
}

// Posts fetches the feed and returns its items in document order. Items
// without a parseable publish date are dropped silently: the date is what
// recency filtering runs on, so an undated item is unusable rather than
// erroneous.
func (r *Resolver) Posts(ctx context.Context, entry catalog.Feed) ([]Post, error) {
	body, err := r.client.Fetch(ctx, entry.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", entry.URL, err)
	}

	parsed, err := r.parser.ParseString(string(body))
	if err != nil {
		return nil, &fetcher.MalformedResponseError{URL: entry.URL, Err: err}
	}

	posts := make([]Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		published := publishTime(item)
		if published.IsZero() {
			slog.Debug("dropping undated feed item", "feed", entry.DisplayName, "title", item.Title)
			continue
		}

		posts = append(posts, Post{
			FeedName:    entry.DisplayName,
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: published,
			Description: Truncate(Sanitize(item.Description), DescriptionLimit),
			Categories:  item.Categories,
		})
	}

	return posts, nil
}

func publishTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}
