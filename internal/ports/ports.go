package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// ArticleSource pulls the currently top-ranked stories from upstream.
// Upstream failures degrade to an empty slice; a non-nil error is reserved
// for conditions the adapter cannot absorb.
type ArticleSource interface {
	FetchTop(ctx context.Context, limit int) ([]domain.Article, error)
}

// Summarizer generates a natural-language summary for a single article.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (domain.Summary, error)
}

// Notifier delivers messages to the team channel.
type Notifier interface {
	// PostArticle sends a rich per-article message with the summary as body.
	PostArticle(ctx context.Context, article domain.Article, summaryText string) error
	// PostMessage sends a plain informational or error message; title and
	// link may be empty.
	PostMessage(ctx context.Context, title, link, text string) error
}

// Scheduler controls when pipeline runs execute in unattended mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
