// Package timeline implements the super-story timeline builder (C7): it
// clusters recent story embeddings, admits durable multi-story events, and
// turns each admitted cluster into a persisted timeline with dated events.
package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"newsdigest/internal/clustering"
	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
	"newsdigest/internal/summarizer"
)

// embeddingWindow is how far back story embeddings are considered for
// timeline formation.
const embeddingWindow = 14 * 24 * time.Hour

// Report summarises one timeline-formation run.
type Report struct {
	ClustersFound     int
	TimelinesAdmitted int
}

// Builder turns admitted super-story clusters into persisted timelines.
type Builder struct {
	db         persistence.Database
	clusterer  *clustering.Clusterer
	summarizer *summarizer.Summarizer
	log        *slog.Logger
}

// New builds a timeline Builder.
func New(db persistence.Database, clusterer *clustering.Clusterer, summarizer *summarizer.Summarizer, log *slog.Logger) *Builder {
	return &Builder{db: db, clusterer: clusterer, summarizer: summarizer, log: log}
}

// Run clusters recent story embeddings and admits timelines for any
// super-story cluster that meets the cluster criterion. A cluster-empty
// outcome is logged and treated as a no-op, matching core.ClusterEmpty's
// "skipped silently" contract.
func (b *Builder) Run(ctx context.Context, digestID int) (Report, error) {
	since := time.Now().Add(-embeddingWindow)

	embeddings, err := b.db.Embeddings().StoryEmbeddingsSince(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("timeline: list story embeddings: %w", err)
	}
	if len(embeddings) == 0 {
		b.log.Info("no story embeddings in window", "error", (&core.ClusterEmpty{Stage: "timelines"}).Error())
		return Report{}, nil
	}

	points := make([][]float64, len(embeddings))
	storyIDs := make([]int, len(embeddings))
	for i, e := range embeddings {
		points[i] = e.Vector
		storyIDs[i] = e.StoryID
	}

	storiesByID, err := b.loadStories(ctx, storyIDs)
	if err != nil {
		return Report{}, err
	}

	clusters, err := b.clusterer.Cluster(points)
	if err != nil {
		b.log.Info("clustering produced no super-stories", "error", (&core.ClusterEmpty{Stage: "timelines"}).Error())
		return Report{}, nil
	}

	report := Report{ClustersFound: len(clusters)}
	for _, indices := range clusters {
		cluster := make([]core.Story, 0, len(indices))
		for _, idx := range indices {
			if s, ok := storiesByID[storyIDs[idx]]; ok {
				cluster = append(cluster, s)
			}
		}
		if !clusterAdmits(cluster) {
			continue
		}

		if err := b.admit(ctx, digestID, cluster); err != nil {
			return report, err
		}
		report.TimelinesAdmitted++
	}

	b.log.Info("timeline formation run complete", "clusters", report.ClustersFound, "timelines_admitted", report.TimelinesAdmitted)
	return report, nil
}

// loadStories fetches each embedded story by id, skipping any that can no
// longer be found (e.g. deleted between embedding and clustering).
func (b *Builder) loadStories(ctx context.Context, storyIDs []int) (map[int]core.Story, error) {
	byID := make(map[int]core.Story, len(storyIDs))
	for _, id := range storyIDs {
		if _, ok := byID[id]; ok {
			continue
		}
		s, err := b.db.Stories().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("timeline: get story %d: %w", id, err)
		}
		if s != nil {
			byID[id] = *s
		}
	}
	return byID, nil
}

// clusterAdmits applies the super-story cluster criterion: at least 6
// stories, spanning at least 4 distinct calendar dates, with the most
// recent story less than 24 hours old.
func clusterAdmits(cluster []core.Story) bool {
	if len(cluster) < 6 {
		return false
	}

	days := make(map[string]struct{})
	var mostRecent time.Time
	for _, s := range cluster {
		days[s.Timestamp.Format("2006-01-02")] = struct{}{}
		if s.Timestamp.After(mostRecent) {
			mostRecent = s.Timestamp
		}
	}
	if len(days) < 4 {
		return false
	}
	if time.Since(mostRecent) >= 24*time.Hour {
		return false
	}
	return true
}

var dateGrammar = regexp.MustCompile(`^\d{4}(-\d{2})?(-\d{2})?$`)

// admit calls the summariser, validates the returned event dates and the
// timeline acceptance criterion, then persists the timeline, its events,
// story links and keywords.
func (b *Builder) admit(ctx context.Context, digestID int, cluster []core.Story) error {
	sorted := make([]core.Story, len(cluster))
	copy(sorted, cluster)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	draft, err := b.summarizer.GenerateTimeline(ctx, sorted)
	if err != nil {
		return fmt.Errorf("timeline: generate timeline: %w", err)
	}

	events, err := parseEvents(draft.TimelineEvents)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if !acceptanceCriterion(events) {
		b.log.Info("timeline draft rejected by acceptance criterion", "subject", draft.Subject)
		return nil
	}

	timelineID, err := b.db.Timelines().Create(ctx, &core.Timeline{
		DigestID: digestID,
		Subject:  draft.Subject,
		Headline: draft.Headline,
		Summary:  draft.Summary,
	})
	if err != nil {
		return fmt.Errorf("timeline: create timeline: %w", err)
	}

	for _, e := range events {
		e.TimelineID = timelineID
		if err := b.db.Timelines().AddEvent(ctx, &e); err != nil {
			return fmt.Errorf("timeline: add event: %w", err)
		}
	}

	for _, s := range sorted {
		if err := b.db.Timelines().AddStory(ctx, timelineID, s.ID); err != nil {
			return fmt.Errorf("timeline: link story %d: %w", s.ID, err)
		}
	}

	for _, kw := range draft.Keywords {
		text := summarizer.SanitizeKeyword(kw.Keyword)
		if text == "" {
			continue
		}
		keywordID, err := b.db.Keywords().Upsert(ctx, text, core.KeywordType(kw.Type))
		if err != nil {
			return fmt.Errorf("timeline: upsert keyword %q: %w", text, err)
		}
		if err := b.db.Keywords().LinkTimeline(ctx, timelineID, keywordID); err != nil {
			return fmt.Errorf("timeline: link keyword %q: %w", text, err)
		}
	}

	return nil
}

// parseEvents validates each draft event's date grammar and converts it
// into a core.TimelineEvent, deriving Precision from the date string's
// length (10 chars: day, 7: month, 4: year).
func parseEvents(drafts []summarizer.TimelineEventDraft) ([]core.TimelineEvent, error) {
	events := make([]core.TimelineEvent, 0, len(drafts))
	for _, d := range drafts {
		if !dateGrammar.MatchString(d.Date) {
			return nil, fmt.Errorf("event date %q does not match expected grammar", d.Date)
		}

		var layout string
		var precision core.DatePrecision
		switch len(d.Date) {
		case 10:
			layout, precision = "2006-01-02", core.PrecisionDay
		case 7:
			layout, precision = "2006-01", core.PrecisionMonth
		case 4:
			layout, precision = "2006", core.PrecisionYear
		default:
			return nil, fmt.Errorf("event date %q has unexpected length", d.Date)
		}

		parsed, err := time.Parse(layout, d.Date)
		if err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", d.Date, err)
		}

		events = append(events, core.TimelineEvent{
			StoryID:     d.StoryReference,
			Description: d.EventDescription,
			Date:        parsed,
			Precision:   precision,
		})
	}
	return events, nil
}

// acceptanceCriterion requires at least 3 events spanning at least 2 days,
// with the latest event dated less than 36 hours ago.
func acceptanceCriterion(events []core.TimelineEvent) bool {
	if len(events) < 3 {
		return false
	}

	earliest, latest := events[0].Date, events[0].Date
	for _, e := range events[1:] {
		if e.Date.Before(earliest) {
			earliest = e.Date
		}
		if e.Date.After(latest) {
			latest = e.Date
		}
	}

	if latest.Sub(earliest) < 2*24*time.Hour {
		return false
	}
	if time.Since(latest) >= 36*time.Hour {
		return false
	}
	return true
}
