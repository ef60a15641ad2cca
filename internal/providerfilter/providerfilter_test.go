package providerfilter

import "testing"

func TestAllow_BlacklistedSegmentRejected(t *testing.T) {
	f := New()
	if f.Allow("BBC", "https://bbc.co.uk/travel/article-1") {
		t.Error("expected travel segment to be blacklisted for BBC")
	}
}

func TestAllow_NonBlacklistedPasses(t *testing.T) {
	f := New()
	if !f.Allow("BBC", "https://bbc.co.uk/news/world-1") {
		t.Error("expected non-blacklisted path to pass")
	}
}

func TestAllow_TrailingDotForm(t *testing.T) {
	f := New()
	if f.Allow("ABC", "https://abc.net.au/everyday.article-1") {
		t.Error("expected dot-suffixed segment match to be blacklisted")
	}
}

func TestAllow_UnknownProviderAlwaysPasses(t *testing.T) {
	f := New()
	if !f.Allow("Some Local Paper", "https://example.com/sport/whatever") {
		t.Error("expected unknown provider to have no restrictions")
	}
}

func TestAllow_WhitelistRestricts(t *testing.T) {
	f := &Filter{byProvider: map[string]Criteria{
		"Test": {Whitelist: segs("world")},
	}}
	if f.Allow("Test", "https://example.com/sport/1") {
		t.Error("expected path outside whitelist to be rejected")
	}
	if !f.Allow("Test", "https://example.com/world/1") {
		t.Error("expected whitelisted path to pass")
	}
}
