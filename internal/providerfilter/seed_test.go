package providerfilter

import "testing"

func TestSeed_MatchesCriteriaTableProviders(t *testing.T) {
	criteria := defaultCriteria()
	seed := Seed()

	if len(seed) != len(criteria) {
		t.Fatalf("expected %d seeded providers to match the %d-entry criteria table, got %d", len(criteria), len(criteria), len(seed))
	}

	seen := make(map[int]bool, len(seed))
	for _, p := range seed {
		if seen[p.ID] {
			t.Fatalf("duplicate provider id %d", p.ID)
		}
		seen[p.ID] = true

		if _, ok := criteria[p.Name]; !ok {
			t.Errorf("seeded provider %q has no matching entry in the filter criteria table", p.Name)
		}
		if p.Homepage == "" {
			t.Errorf("provider %q missing homepage", p.Name)
		}
		if p.Country == "" {
			t.Errorf("provider %q missing country", p.Name)
		}
		if p.Timezone == "" {
			t.Errorf("provider %q missing timezone", p.Name)
		}
	}
}
