package embedder

import (
	"strings"
	"testing"
	"time"

	"newsdigest/internal/core"
)

func TestArticleInput_TruncatesAt800Words(t *testing.T) {
	words := make([]string, 1000)
	for i := range words {
		words[i] = "word"
	}
	a := core.Article{Title: "T", Subtitle: "S", Body: strings.Join(words, " ")}

	got := articleInput(a)
	lines := strings.SplitN(got, "\n", 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "T" || lines[1] != "S" {
		t.Errorf("unexpected title/subtitle lines: %q %q", lines[0], lines[1])
	}
	if bodyWords := strings.Fields(lines[2]); len(bodyWords) != maxBodyWords {
		t.Errorf("expected %d words, got %d", maxBodyWords, len(bodyWords))
	}
}

func TestArticleInput_ShortBodyUnaffected(t *testing.T) {
	a := core.Article{Title: "T", Subtitle: "S", Body: "short body text"}
	got := articleInput(a)
	if got != "T\nS\nshort body text" {
		t.Errorf("unexpected input: %q", got)
	}
}

func TestStoryInput(t *testing.T) {
	s := core.Story{
		Timestamp: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		Headline:  "Headline",
		Summary:   "Summary text",
	}
	got := storyInput(s)
	want := "2026-03-05\tHeadline\nSummary text"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
