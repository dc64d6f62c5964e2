package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionLimit is the maximum description length kept on a post.
const DescriptionLimit = 200

const (
	cdataPrefix = "<![CDATA["
	cdataSuffix = "]]>"
)

// Sanitize strips a CDATA wrapper and inline markup from a feed item
// description and collapses the remaining whitespace.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, cdataPrefix) && strings.HasSuffix(s, cdataSuffix) {
		s = s[len(cdataPrefix) : len(s)-len(cdataSuffix)]
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		s = doc.Text()
	}

	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most limit runes, appending an ellipsis marker
// when anything was cut off.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
