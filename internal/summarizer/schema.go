package summarizer

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"newsdigest/internal/core"
)

var keywordTypes = []string{
	string(core.KeywordPerson), string(core.KeywordPlace), string(core.KeywordEvent),
	string(core.KeywordInstitution), string(core.KeywordConcept), string(core.KeywordOther),
}

func keywordSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"keyword": {Type: genai.TypeString},
				"type":    {Type: genai.TypeString, Enum: keywordTypes},
			},
			Required: []string{"keyword", "type"},
		},
	}
}

func storyDigestSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"headline": {
				Type:        genai.TypeString,
				Description: "Story headline, at most 15 words",
			},
			"story_summary": {
				Type:        genai.TypeString,
				Description: "Summary of the story, at most 150 words",
			},
			"coverage_summary": {
				Type:        genai.TypeString,
				Description: "What makes the coverage of this story notable, at most 100 words",
			},
			"keywords": keywordSchema(),
		},
		Required: []string{"headline", "story_summary", "coverage_summary", "keywords"},
	}
}

// rundownsSchema builds an object schema with exactly the given categories
// as required string properties.
func rundownsSchema(categories []string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(categories))
	for _, cat := range categories {
		props[cat] = &genai.Schema{
			Type:        genai.TypeString,
			Description: fmt.Sprintf("Rundown for %q, at most 200 words", cat),
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   categories,
	}
}

func timelineSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subject": {
				Type:        genai.TypeString,
				Description: "2-5 word subject line",
			},
			"headline": {
				Type:        genai.TypeString,
				Description: "At most 15 words",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "At most 250 words",
			},
			"timeline_events": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date": {
							Type:        genai.TypeString,
							Description: "YYYY, YYYY-MM, or YYYY-MM-DD",
						},
						"event_description": {
							Type:        genai.TypeString,
							Description: "At most 10 words",
						},
						"story_reference": {
							Type:        genai.TypeInteger,
							Description: "The story id this event is drawn from",
						},
					},
					Required: []string{"date", "event_description", "story_reference"},
				},
			},
			"keywords": keywordSchema(),
		},
		Required: []string{"subject", "headline", "summary", "timeline_events", "keywords"},
	}
}

func storyDigestPrompt(articles []core.Article) string {
	var b strings.Builder
	b.WriteString("You are summarising a cluster of news articles that all cover the same event.\n")
	b.WriteString("Produce a headline, a story summary, a coverage summary, and a keyword list.\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, a.Title, a.Timestamp.Format("2006-01-02"), a.Body)
	}
	return b.String()
}

func rundownsPrompt(categories []string, input string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a rundown for each of these categories: %s.\n\n", strings.Join(categories, ", "))
	b.WriteString(input)
	return b.String()
}

func timelinePrompt(stories []core.Story) string {
	var b strings.Builder
	b.WriteString("You are building a timeline of a long-running event from its constituent stories.\n")
	b.WriteString("Stories are listed in ascending chronological order. Reference each event's source story by id.\n\n")
	for _, s := range stories {
		fmt.Fprintf(&b, "story_id=%d date=%s title=%q summary=%q\n", s.ID, s.Timestamp.Format("2006-01-02"), s.Headline, s.Summary)
	}
	return b.String()
}
