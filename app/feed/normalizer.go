package feed

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// InvalidItemError marks a raw item that cannot become a publishable Item.
// Invalid items are reported as skips, never published and never fatal to
// the run.
type InvalidItemError struct {
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item: %s", e.Reason)
}

// Normalizer converts raw fetch results into canonical Items
type Normalizer struct {
	bodyMaxLength int
}

func NewNormalizer(bodyMaxLength int) *Normalizer {
	if bodyMaxLength <= 0 {
		bodyMaxLength = 500
	}
	return &Normalizer{bodyMaxLength: bodyMaxLength}
}

// Run normalizes a single raw item. The returned error, when non-nil, is
// always an *InvalidItemError.
func (n *Normalizer) Run(raw RawItem) (Item, error) {
	item := Item{Source: raw.Source}

	item.Link = validateLink(raw.Link)

	item.Title = collapseWhitespace(stripMarkup(raw.Title))
	if item.Title == "" && item.Link != "" {
		item.Title = titleFromLink(item.Link)
	}
	if item.Title == "" {
		return Item{}, &InvalidItemError{Reason: "no title and no link to derive one from"}
	}

	body := collapseWhitespace(stripMarkup(raw.Summary))
	item.Body, item.Truncated = truncateBody(body, n.bodyMaxLength, raw.Source)

	if item.Link == "" && item.Body == "" {
		return Item{}, &InvalidItemError{Reason: "neither link nor body present"}
	}

	if raw.Published != "" {
		if ts, err := dateparse.ParseAny(raw.Published); err == nil {
			utc := ts.UTC()
			item.PublishedAt = &utc
		}
	}

	return item, nil
}

// Rebody replaces an item's body with newly extracted text, reapplying the
// budget rule the original body went through. Paragraph breaks in the new
// body are preserved; the extractor already collapsed each paragraph.
func (n *Normalizer) Rebody(item Item, body string) Item {
	item.Body, item.Truncated = truncateBody(body, n.bodyMaxLength, item.Source)
	return item
}

// stripMarkup reduces an HTML fragment to its text content. Plain text
// passes through unchanged apart from entity unescaping.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// validateLink returns the link when it is a well-formed absolute http(s)
// URL, otherwise empty. A malformed link drops the field rather than
// failing the item.
func validateLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}
	return link
}

// titleFromLink derives a placeholder title from the last path segment of
// the link, e.g. "/news/uk-politics-live" becomes "uk politics live"
func titleFromLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	segment := segments[len(segments)-1]
	segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	return collapseWhitespace(segment)
}

// truncateBody cuts the body down to the rune budget and appends an
// attribution suffix noting the truncation and the source
func truncateBody(body string, budget int, source string) (string, bool) {
	runes := []rune(body)
	if len(runes) <= budget {
		return body, false
	}
	cut := strings.TrimRight(string(runes[:budget]), " ")
	return fmt.Sprintf("%s... (truncated, via %s)", cut, source), true
}
