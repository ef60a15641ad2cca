// Package ranker implements the view assembler (C9): it reads the most
// recent READY digest, ranks its stories, and serves an in-memory
// snapshot to the read API. The snapshot is rebuilt on a periodic poll
// and on explicit refresh requests, and swapped in atomically so readers
// never observe a partially-built view.
package ranker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
)

// Image is a sampled illustration for a story, carrying enough provenance
// to attribute it in the UI.
type Image struct {
	URL      string `json:"url"`
	Article  string `json:"article_url"`
	Provider string `json:"provider"`
}

// ArticleView is the read-side projection of an Article plus its provider.
type ArticleView struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Country   string    `json:"country"`
}

// RankedStory is one story as served by the read API.
type RankedStory struct {
	ID        int           `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Headline  string        `json:"title"`
	Summary   []string      `json:"summary"`
	Coverage  []string      `json:"coverage"`
	Articles  []ArticleView `json:"articles"`
	Images    []Image       `json:"images"`
}

// snapshot is the atomically-swapped view. Stories is already rank-ordered.
type snapshot struct {
	stories []RankedStory
	byID    map[int]RankedStory
	builtAt time.Time
}

// Assembler holds the current snapshot and refreshes it from the store.
type Assembler struct {
	db       persistence.Database
	log      *slog.Logger
	interval time.Duration
	current  atomic.Pointer[snapshot]
	rng      *rand.Rand
}

// New builds an Assembler with an empty snapshot; call Refresh or Start
// before serving reads.
func New(db persistence.Database, log *slog.Logger, pollInterval time.Duration) *Assembler {
	a := &Assembler{
		db:       db,
		log:      log,
		interval: pollInterval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	a.current.Store(&snapshot{byID: map[int]RankedStory{}})
	return a
}

// Start launches the background refresh loop; it stops when ctx is done.
func (a *Assembler) Start(ctx context.Context) {
	if err := a.Refresh(ctx); err != nil {
		a.log.Warn("initial ranker refresh failed", "error", err)
	}
	ticker := time.NewTicker(a.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.Refresh(ctx); err != nil {
					a.log.Warn("ranker refresh failed", "error", err)
				}
			}
		}
	}()
}

// Stories returns the current ranked story list.
func (a *Assembler) Stories() []RankedStory {
	return a.current.Load().stories
}

// Story looks up one story by id in the current snapshot.
func (a *Assembler) Story(id int) (RankedStory, bool) {
	s, ok := a.current.Load().byID[id]
	return s, ok
}

// Refresh rebuilds the snapshot from the latest READY digest and swaps it
// in atomically. If no READY digest exists, it swaps in an empty snapshot
// rather than erroring, matching the read API's "no content yet" contract.
func (a *Assembler) Refresh(ctx context.Context) error {
	digest, err := a.db.Digests().LatestReady(ctx)
	if err != nil {
		return fmt.Errorf("ranker: load latest ready digest: %w", err)
	}
	if digest == nil {
		a.current.Store(&snapshot{byID: map[int]RankedStory{}, builtAt: time.Now().UTC()})
		return nil
	}

	stories, err := a.db.Stories().ListByDigest(ctx, digest.ID)
	if err != nil {
		return fmt.Errorf("ranker: list stories for digest %d: %w", digest.ID, err)
	}

	ranked := make([]RankedStory, 0, len(stories))
	for _, story := range stories {
		view, err := a.buildStoryView(ctx, story)
		if err != nil {
			a.log.Warn("skipping story in ranker refresh", "story_id", story.ID, "error", err)
			continue
		}
		ranked = append(ranked, view)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankKey(ranked[i]) > rankKey(ranked[j])
	})

	byID := make(map[int]RankedStory, len(ranked))
	for _, s := range ranked {
		byID[s.ID] = s
	}

	a.current.Store(&snapshot{stories: ranked, byID: byID, builtAt: time.Now().UTC()})
	return nil
}

func (a *Assembler) buildStoryView(ctx context.Context, story core.Story) (RankedStory, error) {
	articles, err := a.db.Stories().ArticlesOf(ctx, story.ID)
	if err != nil {
		return RankedStory{}, fmt.Errorf("load articles: %w", err)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Timestamp.After(articles[j].Timestamp)
	})

	providerCache := map[int]*core.Provider{}
	views := make([]ArticleView, 0, len(articles))
	var withImages []core.Article
	for _, art := range articles {
		p, ok := providerCache[art.ProviderID]
		if !ok {
			p, err = a.db.Providers().Get(ctx, art.ProviderID)
			if err != nil {
				return RankedStory{}, fmt.Errorf("load provider %d: %w", art.ProviderID, err)
			}
			providerCache[art.ProviderID] = p
		}
		views = append(views, ArticleView{
			ID:        art.ID,
			Title:     art.Title,
			URL:       art.URL,
			Timestamp: art.Timestamp,
			Provider:  p.Name,
			Country:   p.Country,
		})
		if art.CoverImageURL != "" || len(art.CandidateImageURLs) > 0 {
			withImages = append(withImages, art)
		}
	}

	return RankedStory{
		ID:        story.ID,
		Timestamp: story.Timestamp,
		Headline:  story.Headline,
		Summary:   sentences(story.Summary),
		Coverage:  sentences(story.CoverageSummary),
		Articles:  views,
		Images:    a.sampleImages(withImages, providerCache),
	}, nil
}

// sampleImages draws up to 3 uniform-random samples without replacement
// from articles that carry at least one image URL.
func (a *Assembler) sampleImages(candidates []core.Article, providers map[int]*core.Provider) []Image {
	if len(candidates) == 0 {
		return nil
	}
	n := 3
	if len(candidates) < n {
		n = len(candidates)
	}

	shuffled := make([]core.Article, len(candidates))
	copy(shuffled, candidates)
	a.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	images := make([]Image, 0, n)
	for _, art := range shuffled[:n] {
		url := art.CoverImageURL
		if url == "" && len(art.CandidateImageURLs) > 0 {
			url = art.CandidateImageURLs[0]
		}
		images = append(images, Image{
			URL:      url,
			Article:  art.URL,
			Provider: providers[art.ProviderID].Name,
		})
	}
	return images
}

// rankKey is n_providers x n_articles, descending.
func rankKey(s RankedStory) int {
	providers := map[string]bool{}
	for _, a := range s.Articles {
		providers[a.Provider] = true
	}
	return len(providers) * len(s.Articles)
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?])(?:\s+|$)`)

// sentences splits prose into an ordered array of sentences. No sentence
// library appears anywhere in the example pack for Go; a regex split on
// terminal punctuation is the idiomatic stdlib fallback for this shape.
func sentences(text string) []string {
	if text == "" {
		return []string{}
	}
	out := []string{}
	start := 0
	for _, m := range sentenceSplit.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : m[0]+1]); s != "" {
			out = append(out, s)
		}
		start = m[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
