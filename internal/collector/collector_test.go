package collector

import (
	"testing"
	"time"

	"newsdigest/internal/core"
)

func TestCanonicalize(t *testing.T) {
	got := canonicalize("https://example.com/news/story-1?utm_source=x#top")
	want := "https://example.com/news/story-1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("hello   \n\n  world \t  ")
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestValidate_RejectsShortTitle(t *testing.T) {
	a := &core.Article{
		Timestamp: time.Now(),
		Title:     "Too short",
		Body:      strRepeat("word ", 20),
	}
	if err := validate(a); err == nil {
		t.Error("expected short-title rejection")
	}
}

func TestValidate_RejectsOldArticle(t *testing.T) {
	a := &core.Article{
		Timestamp: time.Now().Add(-4 * 24 * time.Hour),
		Title:     strRepeat("word ", 6),
		Body:      strRepeat("word ", 20),
	}
	if err := validate(a); err == nil {
		t.Error("expected stale-article rejection")
	}
}

func TestValidate_AcceptsValidArticle(t *testing.T) {
	a := &core.Article{
		Timestamp: time.Now(),
		Title:     strRepeat("word ", 6),
		Body:      strRepeat("word ", 20),
	}
	if err := validate(a); err != nil {
		t.Errorf("unexpected rejection: %v", err)
	}
}

func TestNormalizeTimestamp_MidnightBecomesNoon(t *testing.T) {
	p := core.Provider{Timezone: "UTC"}
	a := &core.Article{Timestamp: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)}
	normalizeTimestamp(a, p)
	if a.Timestamp.Hour() != 12 {
		t.Errorf("expected midnight to become noon local, got hour %d", a.Timestamp.Hour())
	}
}

func TestNormalizeTimestamp_NonMidnightUnchangedHour(t *testing.T) {
	p := core.Provider{Timezone: "UTC"}
	a := &core.Article{Timestamp: time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)}
	normalizeTimestamp(a, p)
	if a.Timestamp.Hour() != 14 {
		t.Errorf("expected hour to stay 14, got %d", a.Timestamp.Hour())
	}
}

func TestNormalizeTimestamp_ReattachesWallClockToProviderZone(t *testing.T) {
	// A date-only page is parsed as UTC midnight; the wall clock (not the
	// instant) must be reinterpreted in the provider's zone, so midnight
	// there becomes noon local under the date-only heuristic -- never
	// 00:00Z, which is what an In(loc)-based conversion would produce.
	p := core.Provider{Timezone: "Australia/Sydney"}
	a := &core.Article{Timestamp: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)}
	normalizeTimestamp(a, p)

	if a.Timestamp.Hour() == 0 && a.Timestamp.Minute() == 0 {
		t.Errorf("expected noon-local reattachment to shift the UTC instant off midnight, got %v", a.Timestamp)
	}
}

func TestIsMediaURL(t *testing.T) {
	if !isMediaURL("/assets/photo.jpg") {
		t.Error("expected .jpg to be treated as media")
	}
	if isMediaURL("/news/story-1") {
		t.Error("expected article path to not be treated as media")
	}
}

func strRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
