package summarizer

import (
	"testing"

	"newsdigest/internal/core"
)

func TestStoryDigestSchema_RequiredFields(t *testing.T) {
	schema := storyDigestSchema()
	want := map[string]bool{"headline": true, "story_summary": true, "coverage_summary": true, "keywords": true}
	for _, r := range schema.Required {
		if !want[r] {
			t.Errorf("unexpected required field %q", r)
		}
		delete(want, r)
	}
	if len(want) != 0 {
		t.Errorf("missing required fields: %v", want)
	}
}

func TestRundownsSchema_MatchesCategories(t *testing.T) {
	categories := []string{"Daily News", "Australian News", "US News"}
	schema := rundownsSchema(categories)
	if len(schema.Required) != len(categories) {
		t.Fatalf("expected %d required keys, got %d", len(categories), len(schema.Required))
	}
	for _, c := range categories {
		if _, ok := schema.Properties[c]; !ok {
			t.Errorf("missing property for category %q", c)
		}
	}
}

func TestTimelineSchema_EventFieldsRequired(t *testing.T) {
	schema := timelineSchema()
	events := schema.Properties["timeline_events"]
	if events == nil {
		t.Fatal("expected timeline_events property")
	}
	want := map[string]bool{"date": true, "event_description": true, "story_reference": true}
	for _, r := range events.Items.Required {
		delete(want, r)
	}
	if len(want) != 0 {
		t.Errorf("missing required event fields: %v", want)
	}
}

func TestStoryDigestPrompt_IncludesEachArticle(t *testing.T) {
	articles := []core.Article{{Title: "A"}, {Title: "B"}}
	prompt := storyDigestPrompt(articles)
	if !contains(prompt, "A") || !contains(prompt, "B") {
		t.Errorf("expected prompt to mention both titles, got %q", prompt)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
