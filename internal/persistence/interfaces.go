// Package persistence implements the store gateway (C1): the only
// component that touches the persistent store. Every other component
// depends on the Database interface, never on a concrete driver.
package persistence

import (
	"context"
	"time"

	"newsdigest/internal/core"
)

// ListOptions bounds a listing query.
type ListOptions struct {
	Limit  int
	Offset int
}

// Database is the typed store interface every pipeline stage depends on.
// A transport or constraint violation from any method is returned wrapped
// in a *core.StoreError.
type Database interface {
	Providers() ProviderRepository
	Articles() ArticleRepository
	Embeddings() EmbeddingRepository
	Stories() StoryRepository
	Keywords() KeywordRepository
	Digests() DigestRepository
	Rundowns() RundownRepository
	Timelines() TimelineRepository

	Ping(ctx context.Context) error
	Close() error
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction mirrors Database's repository accessors bound to one
// transaction, committed or rolled back explicitly by the caller.
type Transaction interface {
	Providers() ProviderRepository
	Articles() ArticleRepository
	Embeddings() EmbeddingRepository
	Stories() StoryRepository
	Keywords() KeywordRepository
	Digests() DigestRepository
	Rundowns() RundownRepository
	Timelines() TimelineRepository

	Commit() error
	Rollback() error
}

// ProviderRepository gives typed access to the static provider seed table.
type ProviderRepository interface {
	List(ctx context.Context) ([]core.Provider, error)
	Get(ctx context.Context, id int) (*core.Provider, error)
	Upsert(ctx context.Context, p *core.Provider) error
}

// ArticleRepository gives typed access to articles.
type ArticleRepository interface {
	Create(ctx context.Context, a *core.Article) error
	GetByURL(ctx context.Context, url string) (*core.Article, error)
	ExistingURLs(ctx context.Context, providerID int) (map[string]bool, error)
	Get(ctx context.Context, id int) (*core.Article, error)
	ListSince(ctx context.Context, since time.Time) ([]core.Article, error)
	List(ctx context.Context, opts ListOptions) ([]core.Article, error)
	CountByProvider(ctx context.Context, since time.Time) (map[int]int, error)
}

// EmbeddingRepository stores article/story vectors.
type EmbeddingRepository interface {
	UnembeddedArticles(ctx context.Context, since time.Time) ([]core.Article, error)
	SaveArticleEmbedding(ctx context.Context, e *core.ArticleEmbedding) error
	ArticleEmbeddingsSince(ctx context.Context, since time.Time) ([]core.ArticleEmbedding, error)

	UnembeddedStories(ctx context.Context, since time.Time) ([]core.Story, error)
	SaveStoryEmbedding(ctx context.Context, e *core.StoryEmbedding) error
	StoryEmbeddingsSince(ctx context.Context, since time.Time) ([]core.StoryEmbedding, error)
}

// StoryRepository gives typed access to stories and their joins.
type StoryRepository interface {
	Create(ctx context.Context, s *core.Story) (int, error)
	AddArticles(ctx context.Context, storyID int, articleIDs []int) error
	ArticlesOf(ctx context.Context, storyID int) ([]core.Article, error)
	Get(ctx context.Context, id int) (*core.Story, error)
	ListByDigest(ctx context.Context, digestID int) ([]core.Story, error)
	MaxDigestID(ctx context.Context) (int, error)
}

// KeywordRepository upserts and links keywords.
type KeywordRepository interface {
	Upsert(ctx context.Context, text string, kind core.KeywordType) (int, error)
	LinkStory(ctx context.Context, storyID, keywordID int) error
	LinkTimeline(ctx context.Context, timelineID, keywordID int) error
	ForStory(ctx context.Context, storyID int) ([]core.Keyword, error)
}

// DigestRepository implements the C8 durable state machine's storage.
type DigestRepository interface {
	Create(ctx context.Context) (int, error)
	Get(ctx context.Context, id int) (*core.Digest, error)
	LatestIncomplete(ctx context.Context) (*core.Digest, error)
	LatestReady(ctx context.Context) (*core.Digest, error)
	SetState(ctx context.Context, id int, state core.DigestState) error
}

// RundownRepository stores digest rundowns.
type RundownRepository interface {
	Save(ctx context.Context, r *core.DigestRundown) error
	ForDigest(ctx context.Context, digestID int) ([]core.DigestRundown, error)
}

// TimelineRepository gives typed access to timelines and their joins.
type TimelineRepository interface {
	Create(ctx context.Context, t *core.Timeline) (int, error)
	AddEvent(ctx context.Context, e *core.TimelineEvent) error
	AddStory(ctx context.Context, timelineID, storyID int) error
	ForDigest(ctx context.Context, digestID int) ([]core.Timeline, error)
}
