package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"google.golang.org/genai"

	"newsdigest/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateStoryDigest_RetriesThenExhausts(t *testing.T) {
	calls := 0
	s := &Summarizer{log: discardLogger()}
	s.generateFn = func(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error) {
		calls++
		return "", errors.New("model unavailable")
	}

	_, err := s.GenerateStoryDigest(context.Background(), []core.Article{{Title: "A"}})
	if err == nil {
		t.Fatal("expected error after retry budget exhausted")
	}
	var summErr *core.SummariserError
	if !errors.As(err, &summErr) {
		t.Fatalf("expected *core.SummariserError, got %T: %v", err, err)
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d attempts, got %d", maxRetries+1, calls)
	}
}

func TestGenerateStoryDigest_SucceedsAfterOneRetry(t *testing.T) {
	calls := 0
	s := &Summarizer{log: discardLogger()}
	s.generateFn = func(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error) {
		calls++
		if calls == 1 {
			return "not json", nil
		}
		return `{"headline":"H","story_summary":"S","coverage_summary":"C","keywords":[]}`, nil
	}

	digest, err := s.GenerateStoryDigest(context.Background(), []core.Article{{Title: "A"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if digest.Headline != "H" {
		t.Errorf("unexpected headline: %q", digest.Headline)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestGenerateRundowns_MissingCategoryIsRejected(t *testing.T) {
	s := &Summarizer{log: discardLogger()}
	s.generateFn = func(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error) {
		return `{"Daily News":"text"}`, nil
	}

	_, err := s.GenerateRundowns(context.Background(), []string{"Daily News", "US News"}, "input")
	if err == nil {
		t.Fatal("expected error for missing required category")
	}
}
