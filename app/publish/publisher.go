package publish

import (
	"context"
	"log/slog"
)

// Post is a fully formatted discussion post ready for submission. Link
// posts carry a URL, self posts carry a Body; never both.
type Post struct {
	Title string
	URL   string
	Body  string
	Flair string
}

// Publisher submits a post to the target platform and returns its ID.
// Failures are *Error values carrying the failure kind.
type Publisher interface {
	Publish(ctx context.Context, post Post) (string, error)
}

// LogPublisher logs posts instead of submitting them, for dry runs
type LogPublisher struct{}

func (p *LogPublisher) Publish(ctx context.Context, post Post) (string, error) {
	slog.Info("Dry run, post not submitted",
		"title", post.Title,
		"url", post.URL,
		"flair", post.Flair,
		"body_length", len(post.Body))
	return "dry-run", nil
}
