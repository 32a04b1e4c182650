package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const discussURLFormat = "https://news.ycombinator.com/item?id=%d"

// Client implements ports.ArticleSource on top of the Hacker News Firebase API.
type Client struct {
	baseURL       string
	candidatePool int
	maxComments   int
	client        *http.Client
	logger        *slog.Logger
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a sane default timeout.
func NewClient(cfg config.HackerNewsConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	pool := cfg.CandidatePool
	if pool <= 0 {
		pool = 30
	}

	maxComments := cfg.MaxComments
	if maxComments <= 0 {
		maxComments = 10
	}

	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		candidatePool: pool,
		maxComments:   maxComments,
		client:        client,
		logger:        logger,
	}
}

// item mirrors the upstream JSON shape. Deleted and dead entries still
// decode; they are filtered during normalization.
type item struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Score       *int   `json:"score"`
	Descendants *int   `json:"descendants"`
	Kids        []int  `json:"kids"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// FetchTop returns up to limit normalized, deduplicated top stories. Upstream
// failures degrade to an empty result: a run with no articles is a valid
// steady state, not an error.
func (c *Client) FetchTop(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := c.topStoryIDs(ctx)
	if err != nil {
		c.warn("top stories unavailable", "error", err)
		return nil, nil
	}
	if len(ids) == 0 {
		c.warn("top stories list is empty")
		return nil, nil
	}

	if len(ids) > c.candidatePool {
		ids = ids[:c.candidatePool]
	}

	articles := make([]domain.Article, 0, limit)
	for _, id := range ids {
		if len(articles) >= limit {
			break
		}

		it, err := c.fetchItem(ctx, id)
		if err != nil {
			c.debug("skip story", "id", id, "error", err)
			continue
		}
		if !usable(it) {
			c.debug("skip story", "id", id, "reason", "missing title or time, or removed")
			continue
		}

		articles = append(articles, c.buildArticle(ctx, it))
	}

	return dedupeByTitle(articles), nil
}

func (c *Client) topStoryIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) fetchItem(ctx context.Context, id int) (item, error) {
	var it item
	url := fmt.Sprintf("%s/item/%d.json", c.baseURL, id)
	if err := c.getJSON(ctx, url, &it); err != nil {
		return item{}, err
	}
	return it, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsDigest/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hacker news returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// usable rejects items that cannot become a valid Article.
func usable(it item) bool {
	if it.Deleted || it.Dead {
		return false
	}
	return strings.TrimSpace(it.Title) != "" && it.Time > 0
}

func (c *Client) buildArticle(ctx context.Context, it item) domain.Article {
	title := strings.TrimSpace(it.Title)

	link := it.URL
	if link == "" {
		link = fmt.Sprintf(discussURLFormat, it.ID)
	}

	body := plainText(it.Text)
	if body == "" {
		body = title
	}

	return domain.Article{
		ID:           it.ID,
		Title:        title,
		Link:         link,
		Body:         body,
		PublishedAt:  time.Unix(it.Time, 0).UTC(),
		Comments:     c.fetchComments(ctx, it.Kids),
		Score:        it.Score,
		CommentCount: it.Descendants,
		Author:       it.By,
		Kind:         it.Type,
	}
}

// fetchComments walks a 2x candidate window of reply IDs in source order and
// keeps the first maxComments live, non-empty texts. The over-fetch absorbs
// reply-level deletions without an unbounded scan.
func (c *Client) fetchComments(ctx context.Context, kids []int) []string {
	if len(kids) == 0 {
		return nil
	}

	window := kids
	if limit := c.maxComments * 2; len(window) > limit {
		window = window[:limit]
	}

	comments := make([]string, 0, c.maxComments)
	for _, id := range window {
		if len(comments) >= c.maxComments {
			break
		}

		it, err := c.fetchItem(ctx, id)
		if err != nil {
			c.debug("skip comment", "id", id, "error", err)
			continue
		}
		if it.Deleted || it.Dead {
			continue
		}

		text := plainText(it.Text)
		if text == "" {
			continue
		}
		comments = append(comments, text)
	}

	if len(comments) == 0 {
		return nil
	}
	return comments
}

// plainText strips the HTML markup upstream embeds in text fields and
// collapses all whitespace runs to single spaces.
func plainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// dedupeByTitle drops later articles whose normalized title was already seen.
// The upstream occasionally surfaces the same story under two IDs.
func dedupeByTitle(articles []domain.Article) []domain.Article {
	seen := map[string]struct{}{}
	result := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		key := normalizeTitle(article.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, article)
	}
	return result
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
