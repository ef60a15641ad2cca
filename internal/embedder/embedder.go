// Package embedder implements the embedder (C4): it vectorises every
// article and story lacking an embedding row, via the external embedding
// model, and stores the result.
package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
)

// Mode selects which table the embedder fills in on one run.
type Mode string

const (
	ModeArticles Mode = "articles"
	ModeStories  Mode = "stories"
)

// Report summarises one embedding run.
type Report struct {
	Mode      Mode
	Embedded  int
	Attempted int
}

// Embedder calls the configured embedding model for every row lacking an
// embedding, writing vectors back through the store gateway.
type Embedder struct {
	db     persistence.Database
	client *genai.Client
	model  string
	dims   int32
	log    *slog.Logger
}

// New builds an Embedder from Gemini configuration.
func New(ctx context.Context, db persistence.Database, cfg config.Gemini, log *slog.Logger) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: create genai client: %w", err)
	}

	return &Embedder{
		db:     db,
		client: client,
		model:  cfg.EmbeddingModel,
		dims:   cfg.EmbeddingDimension,
		log:    log,
	}, nil
}

// Run embeds every unembedded row of the given mode since the given
// lookback window. A non-retriable model error aborts the run so the
// calling stage does not advance the digest state.
func (e *Embedder) Run(ctx context.Context, mode Mode, since time.Time) (Report, error) {
	switch mode {
	case ModeArticles:
		return e.runArticles(ctx, since)
	case ModeStories:
		return e.runStories(ctx, since)
	default:
		return Report{}, fmt.Errorf("embedder: unknown mode %q", mode)
	}
}

func (e *Embedder) runArticles(ctx context.Context, since time.Time) (Report, error) {
	articles, err := e.db.Embeddings().UnembeddedArticles(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("embedder: list unembedded articles: %w", err)
	}

	report := Report{Mode: ModeArticles, Attempted: len(articles)}
	for _, a := range articles {
		vector, err := e.embed(ctx, articleInput(a))
		if err != nil {
			return report, fmt.Errorf("embedder: article %d: %w", a.ID, err)
		}
		if err := e.db.Embeddings().SaveArticleEmbedding(ctx, &core.ArticleEmbedding{ArticleID: a.ID, Vector: vector}); err != nil {
			return report, fmt.Errorf("embedder: save article embedding %d: %w", a.ID, err)
		}
		report.Embedded++
	}

	e.log.Info("article embedding run complete", "attempted", report.Attempted, "embedded", report.Embedded)
	return report, nil
}

func (e *Embedder) runStories(ctx context.Context, since time.Time) (Report, error) {
	stories, err := e.db.Embeddings().UnembeddedStories(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("embedder: list unembedded stories: %w", err)
	}

	report := Report{Mode: ModeStories, Attempted: len(stories)}
	for _, s := range stories {
		vector, err := e.embed(ctx, storyInput(s))
		if err != nil {
			return report, fmt.Errorf("embedder: story %d: %w", s.ID, err)
		}
		if err := e.db.Embeddings().SaveStoryEmbedding(ctx, &core.StoryEmbedding{StoryID: s.ID, Vector: vector}); err != nil {
			return report, fmt.Errorf("embedder: save story embedding %d: %w", s.ID, err)
		}
		report.Embedded++
	}

	e.log.Info("story embedding run complete", "attempted", report.Attempted, "embedded", report.Embedded)
	return report, nil
}

// embed calls the model once per row; a failed call, whatever the error,
// is retried once before the error is returned.
func (e *Embedder) embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}
	dims := e.dims
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		resp, err = e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("empty embedding response")
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

const maxBodyWords = 800

// articleInput builds the embedding input for an article:
// title \n subtitle \n first-800-words-of-body.
func articleInput(a core.Article) string {
	words := strings.Fields(a.Body)
	if len(words) > maxBodyWords {
		words = words[:maxBodyWords]
	}
	return fmt.Sprintf("%s\n%s\n%s", a.Title, a.Subtitle, strings.Join(words, " "))
}

// storyInput builds the embedding input for a story:
// ISO-date(ts) \t title \n summary.
func storyInput(s core.Story) string {
	return fmt.Sprintf("%s\t%s\n%s", s.Timestamp.Format("2006-01-02"), s.Headline, s.Summary)
}
