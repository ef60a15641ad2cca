// Package collector implements the collector (C3): per-provider homepage
// crawling, article parsing, validation, and insertion.
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
	"newsdigest/internal/providerfilter"
)

// Report summarises one collection run.
type Report struct {
	RunID           string
	Accepted        int
	PerProvider     map[string]int
	ProvidersFailed []string
}

// Collector fans out over the provider table, crawling homepages and
// parsing article candidates into the store.
type Collector struct {
	db     persistence.Database
	filter *providerfilter.Filter
	cfg    config.Collector
	log    *slog.Logger
	client *http.Client
}

// New builds a Collector bound to db, using cfg's network tunables.
func New(db persistence.Database, filter *providerfilter.Filter, cfg config.Collector, log *slog.Logger) *Collector {
	return &Collector{
		db:     db,
		filter: filter,
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

type candidate struct {
	provider core.Provider
	url      string
}

// Run crawls every provider's homepage, parses and validates surviving
// candidates, and inserts accepted articles. Providers that fail are
// listed in Report.ProvidersFailed; rejected articles are logged and
// skipped but not counted. Neither is fatal to the run.
func (c *Collector) Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()
	log := c.log.With("run_id", runID, "component", "collector")

	providers, err := c.db.Providers().List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("collector: list providers: %w", err)
	}

	report := Report{RunID: runID, PerProvider: make(map[string]int)}

	candidates, failed := c.buildCandidates(ctx, log, providers)
	report.ProvidersFailed = failed

	existing := make(map[string]map[string]bool, len(providers))
	for _, p := range providers {
		urls, err := c.db.Articles().ExistingURLs(ctx, p.ID)
		if err != nil {
			return report, fmt.Errorf("collector: existing urls for %s: %w", p.Name, err)
		}
		existing[p.Name] = urls
	}

	var survivors []candidate
	for _, cand := range candidates {
		canonical := canonicalize(cand.url)
		if existing[cand.provider.Name][canonical] {
			continue
		}
		if !c.filter.Allow(cand.provider.Name, canonical) {
			continue
		}
		survivors = append(survivors, candidate{provider: cand.provider, url: canonical})
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, 16)

	for _, cand := range survivors {
		cand := cand
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			article, err := c.fetchAndParse(ctx, cand)
			if err != nil {
				log.Debug("article rejected", "url", cand.url, "error", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if err := c.db.Articles().Create(ctx, article); err != nil {
				log.Warn("insert article failed", "url", cand.url, "error", err)
				return
			}
			report.Accepted++
			report.PerProvider[cand.provider.Name]++
		}()
	}
	wg.Wait()

	log.Info("collection run complete", "accepted", report.Accepted, "providers_failed", len(report.ProvidersFailed))
	return report, nil
}

// buildCandidates fans out one goroutine per provider to fetch its
// homepage and enumerate candidate article links.
func (c *Collector) buildCandidates(ctx context.Context, log *slog.Logger, providers []core.Provider) ([]candidate, []string) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		all      []candidate
		failures []string
	)

	for i, p := range providers {
		p := p
		wg.Add(1)
		go func(delay time.Duration) {
			defer wg.Done()
			time.Sleep(delay)

			links, err := c.extractLinks(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("provider build failed", "provider", p.Name, "error", err)
				failures = append(failures, p.Name)
				return
			}
			for _, link := range links {
				all = append(all, candidate{provider: p, url: link})
			}
		}(time.Duration(i) * c.cfg.PerProviderDelay)
	}
	wg.Wait()

	return all, failures
}

// extractLinks fetches a provider's homepage and returns every href under
// the provider's own host.
func (c *Collector) extractLinks(ctx context.Context, p core.Provider) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Homepage, nil)
	if err != nil {
		return nil, &core.ProviderBuildError{Provider: p.Name, Cause: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &core.ProviderBuildError{Provider: p.Name, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &core.ProviderBuildError{Provider: p.Name, Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &core.ProviderBuildError{Provider: p.Name, Cause: err}
	}

	base, err := url.Parse(p.Homepage)
	if err != nil {
		return nil, &core.ProviderBuildError{Provider: p.Name, Cause: err}
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || resolved.Host != base.Host {
			return
		}
		if isMediaURL(resolved.Path) {
			return
		}
		abs := resolved.String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links, nil
}

var mediaExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|svg|webp|mp4|mp3|wav|pdf|css|js)$`)

func isMediaURL(path string) bool {
	return mediaExt.MatchString(path)
}

// canonicalize strips the query string and fragment from a candidate URL.
func canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// fetchAndParse downloads a candidate page, extracts its fields, retries
// the parse once after a back-off on failure, and runs post-parse
// validation. Returns *core.ArticleRejected on any validation failure.
func (c *Collector) fetchAndParse(ctx context.Context, cand candidate) (*core.Article, error) {
	body, err := c.download(ctx, cand.url)
	if err != nil {
		return nil, &core.ArticleRejected{URL: cand.url, Reason: fmt.Sprintf("download: %v", err)}
	}

	article, err := parseArticle(cand.url, body)
	if err != nil {
		time.Sleep(c.cfg.ParseRetryBackoff)
		body, dlErr := c.download(ctx, cand.url)
		if dlErr != nil {
			return nil, &core.ArticleRejected{URL: cand.url, Reason: fmt.Sprintf("retry download: %v", dlErr)}
		}
		article, err = parseArticle(cand.url, body)
		if err != nil {
			return nil, &core.ArticleRejected{URL: cand.url, Reason: fmt.Sprintf("parse: %v", err)}
		}
	}
	article.ProviderID = cand.provider.ID

	if err := validate(article); err != nil {
		return nil, &core.ArticleRejected{URL: cand.url, Reason: err.Error()}
	}
	if !c.filter.Allow(cand.provider.Name, article.URL) {
		return nil, &core.ArticleRejected{URL: cand.url, Reason: "provider filter rejected final URL"}
	}

	normalizeTimestamp(article, cand.provider)
	article.Body = collapseWhitespace(article.Body)
	article.DateFetched = time.Now().UTC()
	article.DateAdded = time.Now().UTC()

	return article, nil
}

func (c *Collector) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func validate(a *core.Article) error {
	if a.Timestamp.IsZero() {
		return fmt.Errorf("missing publish date")
	}
	if time.Since(a.Timestamp) > 3*24*time.Hour {
		return fmt.Errorf("publish date older than 3 days")
	}
	if len(strings.Fields(a.Title)) < 6 {
		return fmt.Errorf("title too short")
	}
	if len(strings.Fields(a.Body)) < 18 {
		return fmt.Errorf("body too short")
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// normalizeTimestamp interprets the article's parsed local time in the
// provider's timezone, treating exact midnight as noon local (a frequent
// sign the source only published a date, not a time), then converts to UTC.
func normalizeTimestamp(a *core.Article, p core.Provider) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}

	local := time.Date(a.Timestamp.Year(), a.Timestamp.Month(), a.Timestamp.Day(),
		a.Timestamp.Hour(), a.Timestamp.Minute(), a.Timestamp.Second(), 0, loc)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 {
		local = time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
	}

	a.Timestamp = local.UTC()
	a.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
