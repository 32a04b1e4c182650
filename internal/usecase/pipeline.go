package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// NoNewsResult is both the informational message posted to the channel and
// the run result when the source produces no articles. An empty feed is a
// valid steady state, not a failure.
const NoNewsResult = "No news found."

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source         ports.ArticleSource
	Summarizer     ports.Summarizer
	Notifier       ports.Notifier
	ArticleCount   int
	SummarizePacer *Pacer
	PostPacer      *Pacer
	Logger         *slog.Logger
}

// Pipeline implements the fetch -> summarize -> post workflow with per-item
// failure isolation: one bad article never aborts the run.
type Pipeline struct {
	source         ports.ArticleSource
	summarizer     ports.Summarizer
	notifier       ports.Notifier
	articleCount   int
	summarizePacer *Pacer
	postPacer      *Pacer
	logger         *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	count := deps.ArticleCount
	if count <= 0 {
		count = 3
	}

	return &Pipeline{
		source:         deps.Source,
		summarizer:     deps.Summarizer,
		notifier:       deps.Notifier,
		articleCount:   count,
		summarizePacer: deps.SummarizePacer,
		postPacer:      deps.PostPacer,
		logger:         deps.Logger,
	}
}

// Run executes one full pipeline pass and returns a short human-readable
// result string. Errors escaping per-article handling are reported to the
// channel once and then returned so the invoking scheduler sees the failure.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	articles, err := p.source.FetchTop(ctx, p.articleCount)
	if err != nil {
		// The source degrades to empty instead of failing; this is the
		// defensive catch-all for when it cannot.
		p.reportGeneralError(ctx, err)
		return "", fmt.Errorf("fetch top stories: %w", err)
	}

	if len(articles) == 0 {
		p.info("no articles fetched")
		if postErr := p.notifier.PostMessage(ctx, "", "", NoNewsResult); postErr != nil {
			p.warn("post no-news message", "error", postErr)
		}
		return NoNewsResult, nil
	}

	results := make([]domain.ProcessResult, 0, len(articles))
	for _, article := range articles {
		results = append(results, p.processArticle(ctx, article))
	}

	posted := 0
	for _, result := range results {
		if result.Posted {
			posted++
		} else {
			p.info("article not posted", "id", result.ArticleID, "reason", result.Reason)
		}
	}

	return fmt.Sprintf("%d summaries posted.", posted), nil
}

func (p *Pipeline) processArticle(ctx context.Context, article domain.Article) domain.ProcessResult {
	result := domain.ProcessResult{ArticleID: article.ID}

	if err := p.summarizePacer.Wait(ctx); err != nil {
		result.Reason = err.Error()
		return result
	}

	summary, err := p.summarizer.Summarize(ctx, article)
	if err != nil {
		p.reportArticleError(ctx, article, fmt.Errorf("summarize: %w", err))
		result.Reason = err.Error()
		return result
	}

	if !summary.Valid() {
		// A classified failure is not a hard error: report the sentinel
		// text against the article and move on.
		p.info("summary not valid", "id", article.ID, "outcome", summary.Outcome)
		if postErr := p.notifier.PostMessage(ctx, article.Title, article.Link, summary.Text); postErr != nil {
			p.warn("post summary-failure message", "id", article.ID, "error", postErr)
		}
		result.Reason = "summary not valid"
		return result
	}

	if err := p.postPacer.Wait(ctx); err != nil {
		result.Reason = err.Error()
		return result
	}

	if err := p.notifier.PostArticle(ctx, article, summary.Text); err != nil {
		p.reportArticleError(ctx, article, fmt.Errorf("post article: %w", err))
		result.Reason = err.Error()
		return result
	}

	result.Posted = true
	return result
}

// reportArticleError posts a best-effort per-article error notification. If
// even that fails there is nothing left but the log.
func (p *Pipeline) reportArticleError(ctx context.Context, article domain.Article, err error) {
	p.warn("article failed", "id", article.ID, "title", article.Title, "error", err)

	text := fmt.Sprintf("Failed to process story: %v", err)
	if postErr := p.notifier.PostMessage(ctx, article.Title, article.Link, text); postErr != nil {
		p.warn("post article-error message", "id", article.ID, "error", postErr)
	}
}

func (p *Pipeline) reportGeneralError(ctx context.Context, err error) {
	text := fmt.Sprintf("News digest run failed: %v", err)
	if postErr := p.notifier.PostMessage(ctx, "", "", text); postErr != nil {
		p.warn("post general-error message", "error", postErr)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
