package domain

import (
	"strings"
	"time"
)

// Article is a core entity describing one normalized Hacker News story.
// Title and PublishedAt are mandatory; the source never constructs an
// Article without them.
type Article struct {
	ID          int
	Title       string
	Link        string
	Body        string
	PublishedAt time.Time
	Comments    []string

	// Optional enrichment; a nil pointer or empty string means the
	// upstream item did not carry the field.
	Score        *int
	CommentCount *int
	Author       string
	Kind         string
}

// SummaryOutcome classifies what the generation endpoint produced.
type SummaryOutcome int

const (
	SummaryValid SummaryOutcome = iota
	SummaryBlocked
	SummaryEmpty
)

// Display texts carried by failed summaries when they are reported to the channel.
const (
	SafetyBlockedText    = "Summary unavailable: blocked by safety filters."
	GenerationFailedText = "Summary unavailable: the model returned no text."
)

// Summary is the per-article generation result. The outcome tag is decided
// once, where the remote response is parsed; consumers never re-derive it
// from the text.
type Summary struct {
	Outcome SummaryOutcome
	Text    string
}

// Valid reports whether the summary carries postable content.
func (s Summary) Valid() bool {
	return s.Outcome == SummaryValid && strings.TrimSpace(s.Text) != ""
}

// ProcessResult records the per-article outcome for run-level aggregation.
type ProcessResult struct {
	ArticleID int
	Posted    bool
	Reason    string
}
