// Package story implements the C5 cluster-to-story pipeline: it reads
// recent article embeddings, clusters them, applies the admission
// criterion, and writes admitted clusters as stories.
package story

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"newsdigest/internal/clustering"
	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
	"newsdigest/internal/summarizer"
)

// embeddingWindow is how far back article embeddings are considered for
// story formation.
const embeddingWindow = 48 * time.Hour

// maxArticlesForLLM bounds the payload sent to the summariser per story.
const maxArticlesForLLM = 20

// Report summarises one story-formation run.
type Report struct {
	ClustersFound   int
	StoriesAdmitted int
}

// Builder turns admitted article clusters into persisted stories.
type Builder struct {
	db         persistence.Database
	clusterer  *clustering.Clusterer
	summarizer *summarizer.Summarizer
	coherence  *clustering.CoherenceChecker
	log        *slog.Logger
}

// New builds a story Builder.
func New(db persistence.Database, clusterer *clustering.Clusterer, summarizer *summarizer.Summarizer, coherence *clustering.CoherenceChecker, log *slog.Logger) *Builder {
	return &Builder{db: db, clusterer: clusterer, summarizer: summarizer, coherence: coherence, log: log}
}

// Run clusters recent article embeddings and admits stories into
// digestID. A cluster-empty outcome is logged and treated as a no-op, not
// an error, matching core.ClusterEmpty's "skipped silently" contract.
func (b *Builder) Run(ctx context.Context, digestID int) (Report, error) {
	since := time.Now().Add(-embeddingWindow)

	embeddings, err := b.db.Embeddings().ArticleEmbeddingsSince(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("story: list article embeddings: %w", err)
	}
	if len(embeddings) == 0 {
		b.log.Info("no article embeddings in window", "error", (&core.ClusterEmpty{Stage: "stories"}).Error())
		return Report{}, nil
	}

	articlesByID, providersByID, err := b.loadArticlesAndProviders(ctx, since)
	if err != nil {
		return Report{}, err
	}

	points := make([][]float64, len(embeddings))
	articleIDs := make([]int, len(embeddings))
	for i, e := range embeddings {
		points[i] = e.Vector
		articleIDs[i] = e.ArticleID
	}

	clusters, err := b.clusterer.Cluster(points)
	if err != nil {
		b.log.Info("clustering produced no clusters", "error", (&core.ClusterEmpty{Stage: "stories"}).Error())
		return Report{}, nil
	}

	report := Report{ClustersFound: len(clusters)}
	for _, indices := range clusters {
		cluster := make([]core.Article, 0, len(indices))
		vectors := make([][]float64, 0, len(indices))
		for _, idx := range indices {
			if a, ok := articlesByID[articleIDs[idx]]; ok {
				cluster = append(cluster, a)
				vectors = append(vectors, points[idx])
			}
		}
		if !admits(cluster, providersByID) {
			continue
		}

		if err := b.admit(ctx, digestID, cluster, vectors); err != nil {
			return report, err
		}
		report.StoriesAdmitted++
	}

	b.log.Info("story formation run complete", "clusters", report.ClustersFound, "stories_admitted", report.StoriesAdmitted)
	return report, nil
}

func (b *Builder) loadArticlesAndProviders(ctx context.Context, since time.Time) (map[int]core.Article, map[int]core.Provider, error) {
	articles, err := b.db.Articles().ListSince(ctx, since)
	if err != nil {
		return nil, nil, fmt.Errorf("story: list articles since %s: %w", since, err)
	}
	articlesByID := make(map[int]core.Article, len(articles))
	for _, a := range articles {
		articlesByID[a.ID] = a
	}

	providers, err := b.db.Providers().List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("story: list providers: %w", err)
	}
	providersByID := make(map[int]core.Provider, len(providers))
	for _, p := range providers {
		providersByID[p.ID] = p
	}

	return articlesByID, providersByID, nil
}

// admits applies the story admission criterion to a cluster's articles.
func admits(cluster []core.Article, providersByID map[int]core.Provider) bool {
	providers := make(map[int]struct{})
	countries := make(map[string]struct{})
	for _, a := range cluster {
		providers[a.ProviderID] = struct{}{}
		if p, ok := providersByID[a.ProviderID]; ok {
			countries[p.Country] = struct{}{}
		}
	}

	nProviders := len(providers)
	nCountries := len(countries)

	switch {
	case nProviders >= 5:
		return true
	case nCountries == 1 && nProviders >= 3:
		return true
	case nCountries == 2 && nProviders >= 4:
		return true
	default:
		return false
	}
}

// admit sorts a cluster's articles (and their paired embedding vectors)
// newest-first, calls the summariser, persists the resulting story, its
// article joins and keywords, then runs the advisory coherence check.
func (b *Builder) admit(ctx context.Context, digestID int, cluster []core.Article, vectors [][]float64) error {
	order := make([]int, len(cluster))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return cluster[order[i]].Timestamp.After(cluster[order[j]].Timestamp) })

	sorted := make([]core.Article, len(cluster))
	sortedVectors := make([][]float64, len(vectors))
	for i, idx := range order {
		sorted[i] = cluster[idx]
		sortedVectors[i] = vectors[idx]
	}

	payload := sorted
	if len(payload) > maxArticlesForLLM {
		payload = payload[:maxArticlesForLLM]
	}

	digest, err := b.summarizer.GenerateStoryDigest(ctx, payload)
	if err != nil {
		return fmt.Errorf("story: generate digest: %w", err)
	}

	now := time.Now().UTC()
	storyID, err := b.db.Stories().Create(ctx, &core.Story{
		Timestamp:       now,
		DigestID:        digestID,
		Label:           fmt.Sprintf("%s-%d", now.Format("20060102"), digestID),
		Headline:        digest.Headline,
		Summary:         digest.StorySummary,
		CoverageSummary: digest.CoverageSummary,
	})
	if err != nil {
		return fmt.Errorf("story: create story: %w", err)
	}

	articleIDs := make([]int, len(sorted))
	for i, a := range sorted {
		articleIDs[i] = a.ID
	}
	if err := b.db.Stories().AddArticles(ctx, storyID, articleIDs); err != nil {
		return fmt.Errorf("story: link articles: %w", err)
	}

	for _, kw := range digest.Keywords {
		text := summarizer.SanitizeKeyword(kw.Keyword)
		if text == "" {
			continue
		}
		keywordID, err := b.db.Keywords().Upsert(ctx, text, core.KeywordType(kw.Type))
		if err != nil {
			return fmt.Errorf("story: upsert keyword %q: %w", text, err)
		}
		if err := b.db.Keywords().LinkStory(ctx, storyID, keywordID); err != nil {
			return fmt.Errorf("story: link keyword %q: %w", text, err)
		}
	}

	if b.coherence != nil {
		if report, err := b.coherence.Check(storyID, sortedVectors); err == nil && report.Split {
			b.log.Warn("story may cover more than one topic", "story_id", storyID, "report", report.Describe())
		}
	}

	return nil
}
