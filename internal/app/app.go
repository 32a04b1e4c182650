package app

import (
	"context"
	"log/slog"

	"NewsDigest/internal/config"
	"NewsDigest/internal/infrastructure/gemini"
	"NewsDigest/internal/infrastructure/hackernews"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/slack"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := hackernews.NewClient(cfg.HackerNews, nil, baseLogger.With("component", "hackernews"))
	summarizer := gemini.NewClient(cfg.Gemini)
	notifier := slack.NewNotifier(cfg.Slack)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Summarizer:     summarizer,
		Notifier:       notifier,
		ArticleCount:   cfg.Pipeline.ArticleCount,
		SummarizePacer: usecase.NewPacer(cfg.Pipeline.SummarizePacingDuration()),
		PostPacer:      usecase.NewPacer(cfg.Pipeline.PostPacingDuration()),
		Logger:         baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}
}

// Run executes one pipeline pass and returns its result string. When a
// scheduler interval is configured it instead runs unattended until the
// context ends.
func (a *Application) Run(ctx context.Context) (string, error) {
	if a.pipeline == nil {
		return "", nil
	}

	interval := a.cfg.Scheduler.IntervalDuration()
	if interval <= 0 {
		return a.pipeline.Run(ctx)
	}

	driver := scheduler.NewIntervalScheduler(interval)
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := runner.Start(ctx); err != nil {
		return "", err
	}

	<-ctx.Done()
	if err := runner.Stop(context.Background()); err != nil {
		return "", err
	}
	return "scheduler stopped", nil
}
