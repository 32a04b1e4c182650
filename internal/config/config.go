package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "NEWS_DIGEST_CONFIG"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	slackTokenEnv    = "SLACK_BOT_TOKEN"
	slackChannelEnv  = "SLACK_CHANNEL"
	articleCountEnv  = "ARTICLE_COUNT"
	defaultPoolSize  = 30
	defaultComments  = 10
	defaultArticles  = 3
	defaultSummarize = time.Second
	defaultPost      = 2 * time.Second
)

// Config holds high-level settings required across the application. It is
// loaded once at startup and passed by value into constructors.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	HackerNews HackerNewsConfig `yaml:"hackerNews"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Slack      SlackConfig      `yaml:"slack"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig enables unattended interval mode when Interval is set.
// Empty interval means a single run per invocation (external trigger).
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// IntervalDuration resolves the interval string; zero disables the scheduler.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	if s.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d < 0 {
		log.Printf("config: invalid scheduler interval %q, scheduler disabled", s.Interval)
		return 0
	}
	return d
}

// HackerNewsConfig describes the upstream content API.
type HackerNewsConfig struct {
	BaseURL       string `yaml:"baseUrl"`
	CandidatePool int    `yaml:"candidatePool"`
	MaxComments   int    `yaml:"maxComments"`
}

// GeminiConfig defines how to contact the text-generation API and how much
// discussion context goes into each prompt.
type GeminiConfig struct {
	BaseURL           string `yaml:"baseUrl"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"apiKey"`
	FormatInstruction string `yaml:"formatInstruction"`
	PromptComments    int    `yaml:"promptComments"`
	PromptCommentSize int    `yaml:"promptCommentSize"`
}

// SlackConfig wires all data required to post channel messages.
type SlackConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	BotToken string `yaml:"botToken"`
	Channel  string `yaml:"channel"`
	Username string `yaml:"username"`
}

// PipelineConfig tunes the orchestration loop.
type PipelineConfig struct {
	ArticleCount    int    `yaml:"articleCount"`
	SummarizePacing string `yaml:"summarizePacing"`
	PostPacing      string `yaml:"postPacing"`
}

// SummarizePacingDuration resolves the minimum interval between generation calls.
func (p PipelineConfig) SummarizePacingDuration() time.Duration {
	return durationOr(p.SummarizePacing, defaultSummarize)
}

// PostPacingDuration resolves the minimum interval between channel posts.
func (p PipelineConfig) PostPacingDuration() time.Duration {
	return durationOr(p.PostPacing, defaultPost)
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("config: invalid duration %q, using %s", value, fallback)
		return fallback
	}
	return d
}

// Load reads .env, YAML configuration (if present), and applies environment
// overrides on top of compiled defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Slack.BotToken = v
	}

	if v := os.Getenv(slackChannelEnv); v != "" {
		c.Slack.Channel = v
	}

	if v := os.Getenv(articleCountEnv); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			log.Printf("config: invalid %s=%q, keeping %d", articleCountEnv, v, c.Pipeline.ArticleCount)
		} else {
			c.Pipeline.ArticleCount = n
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.HackerNews.BaseURL != "" {
		base.HackerNews.BaseURL = override.HackerNews.BaseURL
	}
	if override.HackerNews.CandidatePool > 0 {
		base.HackerNews.CandidatePool = override.HackerNews.CandidatePool
	}
	if override.HackerNews.MaxComments > 0 {
		base.HackerNews.MaxComments = override.HackerNews.MaxComments
	}

	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.FormatInstruction != "" {
		base.Gemini.FormatInstruction = override.Gemini.FormatInstruction
	}
	if override.Gemini.PromptComments > 0 {
		base.Gemini.PromptComments = override.Gemini.PromptComments
	}
	if override.Gemini.PromptCommentSize > 0 {
		base.Gemini.PromptCommentSize = override.Gemini.PromptCommentSize
	}

	if override.Slack.BaseURL != "" {
		base.Slack.BaseURL = override.Slack.BaseURL
	}
	if override.Slack.BotToken != "" {
		base.Slack.BotToken = override.Slack.BotToken
	}
	if override.Slack.Channel != "" {
		base.Slack.Channel = override.Slack.Channel
	}
	if override.Slack.Username != "" {
		base.Slack.Username = override.Slack.Username
	}

	if override.Pipeline.ArticleCount > 0 {
		base.Pipeline.ArticleCount = override.Pipeline.ArticleCount
	}
	if override.Pipeline.SummarizePacing != "" {
		base.Pipeline.SummarizePacing = override.Pipeline.SummarizePacing
	}
	if override.Pipeline.PostPacing != "" {
		base.Pipeline.PostPacing = override.Pipeline.PostPacing
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: ""},
		HackerNews: HackerNewsConfig{
			BaseURL:       "https://hacker-news.firebaseio.com/v0",
			CandidatePool: defaultPoolSize,
			MaxComments:   defaultComments,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-2.0-flash",
			APIKey:  "",
			FormatInstruction: "Write a summary of at most 150 characters, then up to three " +
				"discussion bullets of at most 75 characters each, one per line prefixed with '- '.",
			PromptComments:    5,
			PromptCommentSize: 200,
		},
		Slack: SlackConfig{
			BaseURL:  "https://slack.com/api",
			BotToken: "",
			Channel:  "",
			Username: "news-digest",
		},
		Pipeline: PipelineConfig{
			ArticleCount:    defaultArticles,
			SummarizePacing: "1s",
			PostPacing:      "2s",
		},
	}
}
