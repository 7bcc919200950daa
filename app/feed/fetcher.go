package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/lmokto/newsherald/app/config"
)

// Fetcher abstracts a single configured source. Implementations yield raw
// items in the order the source presents them.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawItem, error)
}

// NewFetcher builds the fetcher matching the source type. The loader has
// already validated the type.
func NewFetcher(source config.Source, client *http.Client, userAgent string, timeout time.Duration) Fetcher {
	switch source.Type {
	case "page":
		return &PageFetcher{source: source, client: client, userAgent: userAgent, timeout: timeout}
	default:
		return &FeedFetcher{source: source, client: client, userAgent: userAgent, timeout: timeout, parser: gofeed.NewParser()}
	}
}

// FeedFetcher fetches and parses an RSS/Atom feed
type FeedFetcher struct {
	source    config.Source
	client    *http.Client
	userAgent string
	timeout   time.Duration
	parser    *gofeed.Parser
}

func (f *FeedFetcher) Name() string {
	return f.source.Name
}

func (f *FeedFetcher) Fetch(ctx context.Context) ([]RawItem, error) {
	data, err := fetchURL(ctx, f.client, f.source.URL, f.userAgent, f.timeout,
		"application/rss+xml, application/atom+xml, application/xml, text/xml")
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		raw := RawItem{
			Source:    f.source.Name,
			Title:     entry.Title,
			Link:      entry.Link,
			Summary:   entry.Description,
			Published: entry.Published,
		}
		if raw.Summary == "" {
			raw.Summary = entry.Content
		}
		if raw.Published == "" {
			raw.Published = entry.Updated
		}
		items = append(items, raw)
	}

	return items, nil
}

// PageFetcher scrapes items out of an HTML page using the configured
// selectors. Title and summary selectors accept a trailing "[attr]" suffix
// to read an attribute instead of element text.
type PageFetcher struct {
	source    config.Source
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func (f *PageFetcher) Name() string {
	return f.source.Name
}

func (f *PageFetcher) Fetch(ctx context.Context) ([]RawItem, error) {
	data, err := fetchURL(ctx, f.client, f.source.URL, f.userAgent, f.timeout, "text/html")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []RawItem
	doc.Find(f.source.Selectors.Item).Each(func(i int, block *goquery.Selection) {
		raw := RawItem{
			Source:  f.source.Name,
			Title:   selectValue(block, f.source.Selectors.Title),
			Summary: selectValue(block, f.source.Selectors.Summary),
		}

		if f.source.Selectors.Link != "" {
			link := block.Find(f.source.Selectors.Link).First()
			if href, ok := link.Attr("href"); ok {
				raw.Link = strings.TrimSpace(href)
			}
		}

		if raw.Title == "" && raw.Summary == "" {
			return
		}
		items = append(items, raw)
	})

	return items, nil
}

// selectValue resolves a selector of the form "css" or "css[attr]" against
// the given block
func selectValue(block *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}

	attr := ""
	if open := strings.LastIndex(selector, "["); open != -1 && strings.HasSuffix(selector, "]") {
		attr = selector[open+1 : len(selector)-1]
		selector = selector[:open]
	}

	found := block.Find(selector).First()
	if attr != "" {
		value, _ := found.Attr(attr)
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(found.Text())
}

// fetchURL performs a GET with a bounded timeout and returns the body
func fetchURL(ctx context.Context, client *http.Client, url, userAgent string, timeout time.Duration, accept string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	return data, nil
}
