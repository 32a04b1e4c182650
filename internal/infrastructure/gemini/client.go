package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const finishReasonSafety = "SAFETY"

// Client implements ports.Summarizer backed by the Gemini generateContent API.
type Client struct {
	baseURL           string
	model             string
	apiKey            string
	formatInstruction string
	promptComments    int
	promptCommentSize int
	httpClient        *http.Client
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.GeminiConfig) *Client {
	promptComments := cfg.PromptComments
	if promptComments <= 0 {
		promptComments = 5
	}

	promptCommentSize := cfg.PromptCommentSize
	if promptCommentSize <= 0 {
		promptCommentSize = 200
	}

	return &Client{
		baseURL:           strings.TrimSuffix(cfg.BaseURL, "/"),
		model:             cfg.Model,
		apiKey:            cfg.APIKey,
		formatInstruction: cfg.FormatInstruction,
		promptComments:    promptComments,
		promptCommentSize: promptCommentSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

const promptTemplate = `Summarize the following Hacker News story for a team chat channel.

%s`

// Summarize submits the instruction and the article context as ordered text
// segments and classifies the response. Transport failures and non-success
// statuses are errors; a withheld or empty generation is a classified
// Summary, not an error.
func (c *Client) Summarize(ctx context.Context, article domain.Article) (domain.Summary, error) {
	if c.apiKey == "" || c.model == "" || c.baseURL == "" {
		return domain.Summary{}, fmt.Errorf("gemini client misconfigured")
	}

	// The instruction part must precede the context part: the endpoint is
	// instruction-tuned and ordering changes the output.
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: c.instruction()},
				{Text: fmt.Sprintf(promptTemplate, c.contextBlock(article))},
			},
		}},
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Summary{}, fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Summary{}, fmt.Errorf("decode gemini response: %w", err)
	}

	return classify(decoded), nil
}

// classify decides the summary outcome exactly once, at the response
// boundary. Downstream code checks the tag, never the text.
func classify(resp generateResponse) domain.Summary {
	if len(resp.Candidates) == 0 {
		return domain.Summary{Outcome: domain.SummaryEmpty, Text: domain.GenerationFailedText}
	}

	first := resp.Candidates[0]
	if first.FinishReason == finishReasonSafety {
		return domain.Summary{Outcome: domain.SummaryBlocked, Text: domain.SafetyBlockedText}
	}

	if len(first.Content.Parts) == 0 {
		return domain.Summary{Outcome: domain.SummaryEmpty, Text: domain.GenerationFailedText}
	}

	text := strings.TrimSpace(first.Content.Parts[0].Text)
	if text == "" {
		return domain.Summary{Outcome: domain.SummaryEmpty, Text: domain.GenerationFailedText}
	}

	return domain.Summary{Outcome: domain.SummaryValid, Text: text}
}

func (c *Client) instruction() string {
	instruction := strings.TrimSpace(c.formatInstruction)
	if instruction == "" {
		instruction = "Write a short neutral summary of the story and its discussion."
	}
	return instruction
}

// contextBlock renders the article as prompt context: title, link, the body
// when it adds anything beyond the title, and a bounded slice of top
// comments, each newline-collapsed and truncated.
func (c *Client) contextBlock(article domain.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", article.Title)
	fmt.Fprintf(&sb, "Link: %s\n", article.Link)

	if article.Body != "" && article.Body != article.Title {
		fmt.Fprintf(&sb, "Text: %s\n", article.Body)
	}

	comments := article.Comments
	if len(comments) > c.promptComments {
		comments = comments[:c.promptComments]
	}
	if len(comments) > 0 {
		sb.WriteString("Top comments:\n")
		for _, comment := range comments {
			fmt.Fprintf(&sb, "- %s\n", truncate(collapse(comment), c.promptCommentSize))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
