// Package report filters records to the trailing recency window and formats
// them as plain-text lines.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/scipunch/ethwatch/feed"
	"github.com/scipunch/ethwatch/release"
)

// DefaultWindowDays is the trailing window within which a record counts as
// recent.
const DefaultWindowDays = 7

const day = 24 * time.Hour

// daysBetween is the whole number of days elapsed from published to now.
func daysBetween(published, now time.Time) int {
	return int(now.Sub(published) / day)
}

// IsRecent reports whether a record published at the given time falls
// inside the trailing window. Inclusive at exactly windowDays, exclusive
// one second beyond.
func IsRecent(published, now time.Time, windowDays int) bool {
	return now.Sub(published) <= time.Duration(windowDays)*day
}

// RelativeLabel renders the elapsed time since published as a human label.
func RelativeLabel(published, now time.Time) string {
	days := daysBetween(published, now)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// absoluteDate renders the publish date for the report.
func absoluteDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ReleaseLine renders one release as a report line.
func ReleaseLine(rel *release.Release, now time.Time) string {
	version := rel.Version
	if rel.Prerelease {
		version += " (pre-release)"
	}
	return fmt.Sprintf("%s %s — %s (%s) — %s",
		rel.Name, version,
		absoluteDate(rel.PublishedAt), RelativeLabel(rel.PublishedAt, now),
		rel.URL)
}

// PostLines renders one feed post as report lines: a headline plus indented
// category and description lines when present.
func PostLines(p feed.Post, now time.Time) []string {
	lines := []string{fmt.Sprintf("%s: %s — %s (%s) — %s",
		p.FeedName, p.Title,
		absoluteDate(p.PublishedAt), RelativeLabel(p.PublishedAt, now),
		p.Link)}

	if len(p.Categories) > 0 {
		lines = append(lines, "  ["+strings.Join(p.Categories, ", ")+"]")
	}
	if p.Description != "" {
		lines = append(lines, "  "+p.Description)
	}
	return lines
}
