package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
)

func testArticle() domain.Article {
	return domain.Article{
		ID:          42,
		Title:       "A Story",
		Link:        "https://example.org/story",
		Body:        "Some submission text.",
		PublishedAt: time.Unix(1700000000, 0).UTC(),
		Comments:    []string{"first comment", "second comment"},
	}
}

func testConfig(baseURL string) config.GeminiConfig {
	return config.GeminiConfig{
		BaseURL:           baseURL,
		Model:             "test-model",
		APIKey:            "test-key",
		FormatInstruction: "Keep it short.",
		PromptComments:    5,
		PromptCommentSize: 200,
	}
}

func TestSummarizeValid(t *testing.T) {
	t.Parallel()

	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"  A crisp summary.  "}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	summary, err := client.Summarize(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	if summary.Outcome != domain.SummaryValid {
		t.Fatalf("unexpected outcome: %v", summary.Outcome)
	}
	if summary.Text != "A crisp summary." {
		t.Fatalf("unexpected text: %q", summary.Text)
	}
	if !summary.Valid() {
		t.Fatal("summary should be valid")
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", captured)
	}
	if captured.Contents[0].Parts[0].Text != "Keep it short." {
		t.Fatalf("instruction must come first, got %q", captured.Contents[0].Parts[0].Text)
	}
	if !strings.Contains(captured.Contents[0].Parts[1].Text, "Title: A Story") {
		t.Fatalf("context block missing title: %q", captured.Contents[0].Parts[1].Text)
	}
}

func TestSummarizeSafetyBlocked(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"finishReason":"SAFETY","safetyRatings":[{"category":"x","probability":"HIGH"}]}]}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	summary, err := client.Summarize(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	if summary.Outcome != domain.SummaryBlocked {
		t.Fatalf("unexpected outcome: %v", summary.Outcome)
	}
	if summary.Text != domain.SafetyBlockedText {
		t.Fatalf("unexpected text: %q", summary.Text)
	}
	if summary.Valid() {
		t.Fatal("blocked summary must not be valid")
	}
}

func TestSummarizeEmptyResponses(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"candidates":[]}`,
		`{}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`,
	}

	for _, body := range bodies {
		body := body
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))

		client := NewClient(testConfig(server.URL))
		summary, err := client.Summarize(context.Background(), testArticle())
		server.Close()

		if err != nil {
			t.Fatalf("Summarize error for %s: %v", body, err)
		}
		if summary.Outcome != domain.SummaryEmpty {
			t.Fatalf("unexpected outcome for %s: %v", body, summary.Outcome)
		}
		if summary.Text != domain.GenerationFailedText {
			t.Fatalf("unexpected text for %s: %q", body, summary.Text)
		}
	}
}

func TestSummarizePropagatesServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	_, err := client.Summarize(context.Background(), testArticle())
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error should carry a response snippet: %v", err)
	}
}

func TestSummarizeMisconfigured(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://example.invalid")
	cfg.APIKey = ""
	client := NewClient(cfg)

	if _, err := client.Summarize(context.Background(), testArticle()); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}

func TestContextBlock(t *testing.T) {
	t.Parallel()

	client := NewClient(config.GeminiConfig{
		Model:             "m",
		APIKey:            "k",
		PromptComments:    2,
		PromptCommentSize: 10,
	})

	article := testArticle()
	article.Comments = []string{"short", "a comment that is far too long", "dropped entirely"}

	block := client.contextBlock(article)

	if !strings.Contains(block, "Title: A Story") {
		t.Fatalf("missing title: %q", block)
	}
	if !strings.Contains(block, "Text: Some submission text.") {
		t.Fatalf("missing body: %q", block)
	}
	if !strings.Contains(block, "- short") {
		t.Fatalf("missing first comment: %q", block)
	}
	if !strings.Contains(block, "- a comme...") {
		t.Fatalf("long comment not truncated: %q", block)
	}
	if strings.Contains(block, "dropped entirely") {
		t.Fatalf("comment cap not applied: %q", block)
	}

	// Body identical to title adds nothing and is omitted.
	article.Body = article.Title
	block = client.contextBlock(article)
	if strings.Contains(block, "Text:") {
		t.Fatalf("title-equal body must be omitted: %q", block)
	}
}
