package summarizer

import (
	"regexp"
	"strings"
)

// stopwords is a static subset of the English stopword list large enough
// to cover the connective words that appear in model-generated keyword
// phrases ("the", "of", "and"...). No NLTK-equivalent corpus ships with
// any example in the pack, so this is a fixed, hand-picked set rather
// than a loaded resource.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "into": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "to": true, "was": true,
	"were": true, "will": true, "with": true,
}

var suffixes = []string{"ing", "ed", "es", "s"}

var nonWordChar = regexp.MustCompile(`[^a-z0-9\s-]`)

// SanitizeKeyword lowercases, strips punctuation, drops stopwords, and
// applies a suffix-stripping lemmatiser to each remaining word. Returns ""
// if nothing survives, so the caller can skip the upsert entirely.
func SanitizeKeyword(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	cleaned := nonWordChar.ReplaceAllString(lower, "")

	words := strings.Fields(cleaned)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		kept = append(kept, lemmatize(w))
	}
	return strings.Join(kept, " ")
}

// lemmatize strips a single common suffix, matching only when the
// resulting stem is long enough to not be the whole word degenerating to
// nothing (e.g. "is" stays "is", not "").
func lemmatize(word string) string {
	for _, suffix := range suffixes {
		if len(word) > len(suffix)+2 && strings.HasSuffix(word, suffix) {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}
