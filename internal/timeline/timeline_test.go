package timeline

import (
	"testing"
	"time"

	"newsdigest/internal/core"
	"newsdigest/internal/summarizer"
)

func storiesOnDays(offsets ...int) []core.Story {
	stories := make([]core.Story, len(offsets))
	for i, d := range offsets {
		stories[i] = core.Story{ID: i + 1, Timestamp: time.Now().Add(-time.Duration(d) * 24 * time.Hour)}
	}
	return stories
}

func TestClusterAdmits_TooFewStoriesRejected(t *testing.T) {
	cluster := storiesOnDays(0, 1, 2, 3, 4)
	if clusterAdmits(cluster) {
		t.Error("expected five-story cluster to be rejected")
	}
}

func TestClusterAdmits_TooFewDaysRejected(t *testing.T) {
	cluster := append(storiesOnDays(0, 0, 0, 1, 1), core.Story{ID: 6, Timestamp: time.Now()})
	if clusterAdmits(cluster) {
		t.Error("expected cluster spanning only two distinct days to be rejected")
	}
}

func TestClusterAdmits_StaleMostRecentRejected(t *testing.T) {
	cluster := storiesOnDays(2, 3, 4, 5, 6, 7)
	if clusterAdmits(cluster) {
		t.Error("expected cluster whose most recent story is >24h old to be rejected")
	}
}

func TestClusterAdmits_ValidClusterAccepted(t *testing.T) {
	cluster := storiesOnDays(0, 1, 2, 3, 4, 5)
	if !clusterAdmits(cluster) {
		t.Error("expected a six-story, five-day, fresh cluster to be accepted")
	}
}

func TestParseEvents_RejectsMalformedDate(t *testing.T) {
	_, err := parseEvents([]summarizer.TimelineEventDraft{{Date: "not-a-date", EventDescription: "x", StoryReference: 1}})
	if err == nil {
		t.Error("expected malformed date to be rejected")
	}
}

func TestParseEvents_DerivesPrecisionFromLength(t *testing.T) {
	drafts := []summarizer.TimelineEventDraft{
		{Date: "2024-03-15", EventDescription: "day event", StoryReference: 1},
		{Date: "2024-03", EventDescription: "month event", StoryReference: 2},
		{Date: "2024", EventDescription: "year event", StoryReference: 3},
	}
	events, err := parseEvents(drafts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Precision != core.PrecisionDay || events[1].Precision != core.PrecisionMonth || events[2].Precision != core.PrecisionYear {
		t.Errorf("unexpected precisions: %+v", events)
	}
}

func TestAcceptanceCriterion_TooFewEventsRejected(t *testing.T) {
	events := []core.TimelineEvent{
		{Date: time.Now()},
		{Date: time.Now().Add(-3 * 24 * time.Hour)},
	}
	if acceptanceCriterion(events) {
		t.Error("expected fewer than 3 events to be rejected")
	}
}

func TestAcceptanceCriterion_NarrowRangeRejected(t *testing.T) {
	now := time.Now()
	events := []core.TimelineEvent{
		{Date: now},
		{Date: now.Add(-12 * time.Hour)},
		{Date: now.Add(-20 * time.Hour)},
	}
	if acceptanceCriterion(events) {
		t.Error("expected a date range under 2 days to be rejected")
	}
}

func TestAcceptanceCriterion_StaleLatestRejected(t *testing.T) {
	latest := time.Now().Add(-40 * time.Hour)
	events := []core.TimelineEvent{
		{Date: latest},
		{Date: latest.Add(-3 * 24 * time.Hour)},
		{Date: latest.Add(-5 * 24 * time.Hour)},
	}
	if acceptanceCriterion(events) {
		t.Error("expected a timeline whose latest event is >36h old to be rejected")
	}
}

func TestAcceptanceCriterion_ValidTimelineAccepted(t *testing.T) {
	now := time.Now()
	events := []core.TimelineEvent{
		{Date: now.Add(-1 * time.Hour)},
		{Date: now.Add(-3 * 24 * time.Hour)},
		{Date: now.Add(-5 * 24 * time.Hour)},
	}
	if !acceptanceCriterion(events) {
		t.Error("expected a valid 3-event, multi-day, fresh timeline to be accepted")
	}
}
