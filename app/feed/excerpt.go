package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	excerptMinParagraphLength = 40
	excerptMaxParagraphs      = 3
)

// ExcerptExtractor fetches an article page and pulls the opening paragraphs
// out of its readable content, for items whose feed entry carries no usable
// summary. Extraction failures leave the item as it was.
type ExcerptExtractor struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewExcerptExtractor(client *http.Client, userAgent string, timeout time.Duration) *ExcerptExtractor {
	return &ExcerptExtractor{client: client, userAgent: userAgent, timeout: timeout}
}

// Run returns the first paragraphs of the article behind the link
func (e *ExcerptExtractor) Run(ctx context.Context, link string) (string, error) {
	data, err := fetchURL(ctx, e.client, link, e.userAgent, e.timeout, "text/html")
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	excerpt := firstParagraphs(article.TextContent)
	if excerpt == "" {
		return "", fmt.Errorf("no readable paragraphs in article")
	}

	slog.Debug("Excerpt extracted", "link", link, "length", len(excerpt))
	return excerpt, nil
}

// firstParagraphs keeps the leading paragraphs long enough to be prose
func firstParagraphs(text string) string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		paragraph := collapseWhitespace(line)
		if len(paragraph) < excerptMinParagraphLength {
			continue
		}
		paragraphs = append(paragraphs, paragraph)
		if len(paragraphs) == excerptMaxParagraphs {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
