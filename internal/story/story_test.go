package story

import (
	"testing"

	"newsdigest/internal/core"
)

func providerMap(providers ...core.Provider) map[int]core.Provider {
	m := make(map[int]core.Provider, len(providers))
	for _, p := range providers {
		m[p.ID] = p
	}
	return m
}

func TestAdmits_SingleProviderRejected(t *testing.T) {
	providers := providerMap(core.Provider{ID: 1, Country: "US"})
	cluster := []core.Article{{ProviderID: 1}, {ProviderID: 1}, {ProviderID: 1}}
	if admits(cluster, providers) {
		t.Error("expected a single-provider cluster to be rejected")
	}
}

func TestAdmits_FiveProvidersAccepted(t *testing.T) {
	providers := providerMap(
		core.Provider{ID: 1, Country: "US"}, core.Provider{ID: 2, Country: "UK"},
		core.Provider{ID: 3, Country: "AU"}, core.Provider{ID: 4, Country: "CA"},
		core.Provider{ID: 5, Country: "IN"},
	)
	cluster := []core.Article{
		{ProviderID: 1}, {ProviderID: 2}, {ProviderID: 3}, {ProviderID: 4}, {ProviderID: 5},
	}
	if !admits(cluster, providers) {
		t.Error("expected five distinct providers to be accepted regardless of country count")
	}
}

func TestAdmits_OneCountryThreeProvidersAccepted(t *testing.T) {
	providers := providerMap(
		core.Provider{ID: 1, Country: "US"}, core.Provider{ID: 2, Country: "US"}, core.Provider{ID: 3, Country: "US"},
	)
	cluster := []core.Article{{ProviderID: 1}, {ProviderID: 2}, {ProviderID: 3}}
	if !admits(cluster, providers) {
		t.Error("expected one-country/three-provider cluster to be accepted")
	}
}

func TestAdmits_OneCountryTwoProvidersRejected(t *testing.T) {
	providers := providerMap(core.Provider{ID: 1, Country: "US"}, core.Provider{ID: 2, Country: "US"})
	cluster := []core.Article{{ProviderID: 1}, {ProviderID: 2}}
	if admits(cluster, providers) {
		t.Error("expected one-country/two-provider cluster to be rejected")
	}
}

func TestAdmits_TwoCountriesFourProvidersAccepted(t *testing.T) {
	providers := providerMap(
		core.Provider{ID: 1, Country: "US"}, core.Provider{ID: 2, Country: "US"},
		core.Provider{ID: 3, Country: "UK"}, core.Provider{ID: 4, Country: "UK"},
	)
	cluster := []core.Article{{ProviderID: 1}, {ProviderID: 2}, {ProviderID: 3}, {ProviderID: 4}}
	if !admits(cluster, providers) {
		t.Error("expected two-country/four-provider cluster to be accepted")
	}
}

func TestAdmits_TwoCountriesThreeProvidersRejected(t *testing.T) {
	providers := providerMap(
		core.Provider{ID: 1, Country: "US"}, core.Provider{ID: 2, Country: "US"}, core.Provider{ID: 3, Country: "UK"},
	)
	cluster := []core.Article{{ProviderID: 1}, {ProviderID: 2}, {ProviderID: 3}}
	if admits(cluster, providers) {
		t.Error("expected two-country/three-provider cluster to be rejected")
	}
}
