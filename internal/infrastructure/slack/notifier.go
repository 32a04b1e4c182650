package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	attachmentColor = "#ff6600"
	footerSeparator = " · "
	footerIconURL   = "https://news.ycombinator.com/favicon.ico"
)

// Notifier posts rich messages to a Slack channel via chat.postMessage.
type Notifier struct {
	baseURL  string
	botToken string
	channel  string
	username string
	client   *http.Client
	now      func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the bot token, channel, and display username.
func NewNotifier(cfg config.SlackConfig) *Notifier {
	return &Notifier{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		botToken: cfg.BotToken,
		channel:  cfg.Channel,
		username: cfg.Username,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

type attachment struct {
	Fallback   string   `json:"fallback"`
	Color      string   `json:"color"`
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text"`
	MrkdwnIn   []string `json:"mrkdwn_in"`
	Footer     string   `json:"footer"`
	FooterIcon string   `json:"footer_icon,omitempty"`
	Ts         int64    `json:"ts"`
}

type postMessageRequest struct {
	Channel     string       `json:"channel"`
	Text        string       `json:"text"`
	Username    string       `json:"username,omitempty"`
	Attachments []attachment `json:"attachments"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostArticle sends one rich message for an article with the summary text as
// body. Posting failures surface as errors so the orchestrator can report
// them; nothing is swallowed here.
func (n *Notifier) PostArticle(ctx context.Context, article domain.Article, summaryText string) error {
	if err := n.validate(); err != nil {
		return err
	}

	ts := article.PublishedAt.Unix()
	if article.PublishedAt.IsZero() {
		ts = n.now().Unix()
	}

	return n.post(ctx, attachment{
		Fallback:   article.Title,
		Color:      attachmentColor,
		Title:      article.Title,
		TitleLink:  article.Link,
		Text:       summaryText,
		MrkdwnIn:   []string{"text"},
		Footer:     n.footer(article),
		FooterIcon: footerIconURL,
		Ts:         ts,
	})
}

// PostMessage sends a plain informational or error message. Title and link
// are optional; when both are present they render as a clickable header.
func (n *Notifier) PostMessage(ctx context.Context, title, link, text string) error {
	if err := n.validate(); err != nil {
		return err
	}

	msg := attachment{
		Fallback: text,
		Color:    attachmentColor,
		Title:    title,
		Text:     text,
		MrkdwnIn: []string{"text"},
		Footer:   n.username,
		Ts:       n.now().Unix(),
	}
	if title != "" {
		msg.TitleLink = link
	}
	if msg.Fallback == "" {
		msg.Fallback = n.username
	}

	return n.post(ctx, msg)
}

func (n *Notifier) validate() error {
	if n.botToken == "" || n.channel == "" || n.username == "" {
		return fmt.Errorf("slack notifier misconfigured")
	}
	return nil
}

// footer joins the available enrichment metadata, falling back to the
// configured username when the article carries none.
func (n *Notifier) footer(article domain.Article) string {
	var parts []string
	if article.Score != nil {
		parts = append(parts, fmt.Sprintf("%d points", *article.Score))
	}
	if article.Author != "" {
		parts = append(parts, "by "+article.Author)
	}
	if article.CommentCount != nil {
		parts = append(parts, fmt.Sprintf("%d comments", *article.CommentCount))
	}
	if article.Kind != "" {
		parts = append(parts, article.Kind)
	}

	if len(parts) == 0 {
		return n.username
	}
	return strings.Join(parts, footerSeparator)
}

func (n *Notifier) post(ctx context.Context, msg attachment) error {
	body, err := json.Marshal(postMessageRequest{
		Channel:     n.channel,
		Text:        "",
		Username:    n.username,
		Attachments: []attachment{msg},
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack error: %s", resp.Status)
	}

	var decoded postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("slack rejected message: %s", decoded.Error)
	}

	return nil
}
