// Package summarizer implements the summariser (C6): schema-constrained
// chat-model calls for the three invocation shapes the pipeline needs
// (story digest, digest rundowns, timeline), with a bounded retry budget.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
)

// maxRetries is the number of additional attempts after the first; on the
// (maxRetries+1)th failure a *core.SummariserError is raised.
const maxRetries = 2

// Keyword is one extracted named entity in a schema-constrained response.
type Keyword struct {
	Keyword string `json:"keyword"`
	Type    string `json:"type"`
}

// StoryDigest is the parsed result of the story-digest invocation shape.
type StoryDigest struct {
	Headline        string    `json:"headline"`
	StorySummary    string    `json:"story_summary"`
	CoverageSummary string    `json:"coverage_summary"`
	Keywords        []Keyword `json:"keywords"`
}

// TimelineEventDraft is one event in a raw timeline response, before C7's
// own date-grammar and acceptance validation runs.
type TimelineEventDraft struct {
	Date             string `json:"date"`
	EventDescription string `json:"event_description"`
	StoryReference   int    `json:"story_reference"`
}

// TimelineDraft is the parsed result of the timeline invocation shape.
type TimelineDraft struct {
	Subject        string               `json:"subject"`
	Headline       string               `json:"headline"`
	Summary        string               `json:"summary"`
	TimelineEvents []TimelineEventDraft `json:"timeline_events"`
	Keywords       []Keyword            `json:"keywords"`
}

// Summarizer wraps the external chat model with fixed decoding parameters
// and the three schema-constrained invocation shapes.
type Summarizer struct {
	client *genai.Client
	model  string
	log    *slog.Logger

	// generateFn defaults to s.generate; overridden in tests to avoid a
	// live model call.
	generateFn func(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error)
}

// New builds a Summarizer from Gemini configuration.
func New(ctx context.Context, cfg config.Gemini, log *slog.Logger) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("summarizer: create genai client: %w", err)
	}
	s := &Summarizer{client: client, model: cfg.ChatModel, log: log}
	s.generateFn = s.generate
	return s, nil
}

// GenerateStoryDigest produces the {headline, story_summary,
// coverage_summary, keywords[]} shape for an admitted cluster's articles.
func (s *Summarizer) GenerateStoryDigest(ctx context.Context, articles []core.Article) (StoryDigest, error) {
	var result StoryDigest
	err := s.invoke(ctx, "story", storyDigestPrompt(articles), storyDigestSchema(), 500, &result, func() error {
		if result.Headline == "" || result.StorySummary == "" || result.CoverageSummary == "" {
			return fmt.Errorf("missing required story digest field")
		}
		return nil
	})
	return result, err
}

// GenerateRundowns produces an object keyed by categories, every key
// required and non-empty.
func (s *Summarizer) GenerateRundowns(ctx context.Context, categories []string, input string) (map[string]string, error) {
	var result map[string]string
	err := s.invoke(ctx, "rundowns", rundownsPrompt(categories, input), rundownsSchema(categories), 1500, &result, func() error {
		for _, cat := range categories {
			if strings.TrimSpace(result[cat]) == "" {
				return fmt.Errorf("missing rundown for category %q", cat)
			}
		}
		return nil
	})
	return result, err
}

// GenerateTimeline produces the {subject, headline, summary,
// timeline_events[], keywords[]} shape for a super-story's stories.
func (s *Summarizer) GenerateTimeline(ctx context.Context, stories []core.Story) (TimelineDraft, error) {
	var result TimelineDraft
	err := s.invoke(ctx, "timeline", timelinePrompt(stories), timelineSchema(), 800, &result, func() error {
		if result.Subject == "" || result.Headline == "" || result.Summary == "" {
			return fmt.Errorf("missing required timeline field")
		}
		if len(result.TimelineEvents) == 0 {
			return fmt.Errorf("timeline has no events")
		}
		return nil
	})
	return result, err
}

// invoke runs the generate-parse-validate cycle up to maxRetries+1 times,
// raising a *core.SummariserError once the budget is exhausted.
func (s *Summarizer) invoke(ctx context.Context, shape, prompt string, schema *genai.Schema, maxTokens int32, out interface{}, validate func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := s.generateFn(ctx, prompt, schema, maxTokens)
		if err != nil {
			lastErr = &core.ParseError{Field: shape, Cause: err}
			continue
		}
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = &core.ParseError{Field: shape, Cause: err}
			continue
		}
		if err := validate(); err != nil {
			lastErr = &core.ParseError{Field: shape, Cause: err}
			continue
		}
		return nil
	}

	return &core.SummariserError{Shape: shape, Retries: maxRetries, Cause: lastErr}
}

func (s *Summarizer) generate(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	temp := float32(1)
	topP := float32(1)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		TopP:             &topP,
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
