package ranker

import "testing"

func TestSentences(t *testing.T) {
	got := sentences("First sentence. Second sentence! Third one?")
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "First sentence." {
		t.Errorf("unexpected first sentence: %q", got[0])
	}
}

func TestSentences_Empty(t *testing.T) {
	got := sentences("")
	if len(got) != 0 {
		t.Errorf("expected no sentences, got %v", got)
	}
}

func TestRankKey(t *testing.T) {
	s := RankedStory{Articles: []ArticleView{
		{Provider: "A"}, {Provider: "A"}, {Provider: "B"},
	}}
	if got := rankKey(s); got != 6 {
		t.Errorf("expected n_providers(2) x n_articles(3) = 6, got %d", got)
	}
}
