// Package store implements the SQLite "local" persistence profile: the
// same persistence.Database contract as the Postgres profile, for running
// the pipeline without a standalone database server.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsdigest/internal/core"
	"newsdigest/internal/persistence"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed implementation of persistence.Database.
type Store struct {
	db         *sql.DB
	path       string
	providers  persistence.ProviderRepository
	articles   persistence.ArticleRepository
	embeddings persistence.EmbeddingRepository
	stories    persistence.StoryRepository
	keywords   persistence.KeywordRepository
	digests    persistence.DigestRepository
	rundowns   persistence.RundownRepository
	timelines  persistence.TimelineRepository
}

// NewStore opens (and if necessary creates) the SQLite database file under
// dataDir, running the idempotent schema creation.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "newsdigest.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite serializes writers anyway

	s := &Store{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	s.bind(db)
	return s, nil
}

func (s *Store) bind(x execer) {
	s.providers = &sqliteProviderRepo{x: x}
	s.articles = &sqliteArticleRepo{x: x}
	s.embeddings = &sqliteEmbeddingRepo{x: x}
	s.stories = &sqliteStoryRepo{x: x}
	s.keywords = &sqliteKeywordRepo{x: x}
	s.digests = &sqliteDigestRepo{x: x}
	s.rundowns = &sqliteRundownRepo{x: x}
	s.timelines = &sqliteTimelineRepo{x: x}
}

func (s *Store) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			homepage TEXT NOT NULL,
			favicon TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL,
			timezone TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider_id INTEGER NOT NULL REFERENCES providers(id),
			ts DATETIME NOT NULL,
			date DATE NOT NULL,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL UNIQUE,
			body TEXT NOT NULL,
			cover_image_url TEXT NOT NULL DEFAULT '',
			candidate_image_urls TEXT NOT NULL DEFAULT '[]',
			date_fetched DATETIME NOT NULL,
			date_added DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_ts ON articles (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_provider_id ON articles (provider_id)`,
		`CREATE TABLE IF NOT EXISTS article_embeddings (
			article_id INTEGER PRIMARY KEY REFERENCES articles(id),
			embedding TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS digests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			state TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts DATETIME NOT NULL,
			digest_id INTEGER NOT NULL REFERENCES digests(id),
			label TEXT NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			coverage_summary TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stories_digest_id ON stories (digest_id)`,
		`CREATE TABLE IF NOT EXISTS story_articles (
			story_id INTEGER NOT NULL REFERENCES stories(id),
			article_id INTEGER NOT NULL REFERENCES articles(id),
			PRIMARY KEY (story_id, article_id)
		)`,
		`CREATE TABLE IF NOT EXISTS story_embeddings (
			story_id INTEGER PRIMARY KEY REFERENCES stories(id),
			embedding TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS keywords (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			type TEXT NOT NULL,
			UNIQUE (text, type)
		)`,
		`CREATE TABLE IF NOT EXISTS story_keywords (
			story_id INTEGER NOT NULL REFERENCES stories(id),
			keyword_id INTEGER NOT NULL REFERENCES keywords(id),
			PRIMARY KEY (story_id, keyword_id)
		)`,
		`CREATE TABLE IF NOT EXISTS digest_rundowns (
			digest_id INTEGER NOT NULL REFERENCES digests(id),
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (digest_id, type)
		)`,
		`CREATE TABLE IF NOT EXISTS timelines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			digest_id INTEGER NOT NULL REFERENCES digests(id),
			subject TEXT NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			UNIQUE (digest_id, subject)
		)`,
		`CREATE TABLE IF NOT EXISTS timeline_events (
			timeline_id INTEGER NOT NULL REFERENCES timelines(id),
			story_id INTEGER NOT NULL REFERENCES stories(id),
			description TEXT NOT NULL,
			date DATE NOT NULL,
			date_type TEXT NOT NULL,
			UNIQUE (timeline_id, description)
		)`,
		`CREATE TABLE IF NOT EXISTS timeline_stories (
			timeline_id INTEGER NOT NULL REFERENCES timelines(id),
			story_id INTEGER NOT NULL REFERENCES stories(id),
			PRIMARY KEY (timeline_id, story_id)
		)`,
		`CREATE TABLE IF NOT EXISTS timeline_keywords (
			timeline_id INTEGER NOT NULL REFERENCES timelines(id),
			keyword_id INTEGER NOT NULL REFERENCES keywords(id),
			PRIMARY KEY (timeline_id, keyword_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// execer is the subset of *sql.DB / *sql.Tx the sqlite repos need.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) Providers() persistence.ProviderRepository   { return s.providers }
func (s *Store) Articles() persistence.ArticleRepository     { return s.articles }
func (s *Store) Embeddings() persistence.EmbeddingRepository { return s.embeddings }
func (s *Store) Stories() persistence.StoryRepository        { return s.stories }
func (s *Store) Keywords() persistence.KeywordRepository     { return s.keywords }
func (s *Store) Digests() persistence.DigestRepository       { return s.digests }
func (s *Store) Rundowns() persistence.RundownRepository     { return s.rundowns }
func (s *Store) Timelines() persistence.TimelineRepository   { return s.timelines }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) BeginTx(ctx context.Context) (persistence.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StoreError{Kind: "begin_tx", Cause: err}
	}
	return &sqliteTx{
		tx:         tx,
		providers:  &sqliteProviderRepo{x: tx},
		articles:   &sqliteArticleRepo{x: tx},
		embeddings: &sqliteEmbeddingRepo{x: tx},
		stories:    &sqliteStoryRepo{x: tx},
		keywords:   &sqliteKeywordRepo{x: tx},
		digests:    &sqliteDigestRepo{x: tx},
		rundowns:   &sqliteRundownRepo{x: tx},
		timelines:  &sqliteTimelineRepo{x: tx},
	}, nil
}

type sqliteTx struct {
	tx         *sql.Tx
	providers  persistence.ProviderRepository
	articles   persistence.ArticleRepository
	embeddings persistence.EmbeddingRepository
	stories    persistence.StoryRepository
	keywords   persistence.KeywordRepository
	digests    persistence.DigestRepository
	rundowns   persistence.RundownRepository
	timelines  persistence.TimelineRepository
}

func (t *sqliteTx) Commit() error                                 { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error                                { return t.tx.Rollback() }
func (t *sqliteTx) Providers() persistence.ProviderRepository      { return t.providers }
func (t *sqliteTx) Articles() persistence.ArticleRepository        { return t.articles }
func (t *sqliteTx) Embeddings() persistence.EmbeddingRepository    { return t.embeddings }
func (t *sqliteTx) Stories() persistence.StoryRepository           { return t.stories }
func (t *sqliteTx) Keywords() persistence.KeywordRepository        { return t.keywords }
func (t *sqliteTx) Digests() persistence.DigestRepository          { return t.digests }
func (t *sqliteTx) Rundowns() persistence.RundownRepository        { return t.rundowns }
func (t *sqliteTx) Timelines() persistence.TimelineRepository      { return t.timelines }

const sqliteArticleColumns = `id, provider_id, ts, date, title, subtitle, url, body, cover_image_url, candidate_image_urls, date_fetched, date_added`

func scanSQLiteArticleRow(row *sql.Row) (*core.Article, error) {
	var a core.Article
	var imagesJSON string
	err := row.Scan(&a.ID, &a.ProviderID, &a.Timestamp, &a.Date, &a.Title, &a.Subtitle, &a.URL, &a.Body,
		&a.CoverImageURL, &imagesJSON, &a.DateFetched, &a.DateAdded)
	if err != nil {
		return nil, err
	}
	if imagesJSON != "" {
		_ = json.Unmarshal([]byte(imagesJSON), &a.CandidateImageURLs)
	}
	return &a, nil
}

func scanSQLiteArticleRows(rows *sql.Rows) ([]core.Article, error) {
	var out []core.Article
	for rows.Next() {
		var a core.Article
		var imagesJSON string
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.Timestamp, &a.Date, &a.Title, &a.Subtitle, &a.URL, &a.Body,
			&a.CoverImageURL, &imagesJSON, &a.DateFetched, &a.DateAdded); err != nil {
			return nil, err
		}
		if imagesJSON != "" {
			_ = json.Unmarshal([]byte(imagesJSON), &a.CandidateImageURLs)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- providers ---

type sqliteProviderRepo struct{ x execer }

func (r *sqliteProviderRepo) List(ctx context.Context) ([]core.Provider, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT id, name, homepage, favicon, country, timezone FROM providers ORDER BY id`)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "providers", Cause: err}
	}
	defer rows.Close()
	var out []core.Provider
	for rows.Next() {
		var p core.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Homepage, &p.Favicon, &p.Country, &p.Timezone); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *sqliteProviderRepo) Get(ctx context.Context, id int) (*core.Provider, error) {
	var p core.Provider
	err := r.x.QueryRowContext(ctx, `SELECT id, name, homepage, favicon, country, timezone FROM providers WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Homepage, &p.Favicon, &p.Country, &p.Timezone)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "providers", Cause: err}
	}
	return &p, nil
}

func (r *sqliteProviderRepo) Upsert(ctx context.Context, p *core.Provider) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO providers (id, name, homepage, favicon, country, timezone) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, homepage = excluded.homepage,
			favicon = excluded.favicon, country = excluded.country, timezone = excluded.timezone
	`, p.ID, p.Name, p.Homepage, p.Favicon, p.Country, p.Timezone)
	if err != nil {
		return &core.StoreError{Kind: "upsert", Table: "providers", Cause: err}
	}
	return nil
}

// --- articles ---

type sqliteArticleRepo struct{ x execer }

func (r *sqliteArticleRepo) Create(ctx context.Context, a *core.Article) error {
	imagesJSON, err := json.Marshal(a.CandidateImageURLs)
	if err != nil {
		return fmt.Errorf("marshal candidate images: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT OR IGNORE INTO articles (provider_id, ts, date, title, subtitle, url, body, cover_image_url, candidate_image_urls, date_fetched, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ProviderID, a.Timestamp, a.Date, a.Title, a.Subtitle, a.URL, a.Body, a.CoverImageURL, string(imagesJSON), a.DateFetched, a.DateAdded)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "articles", Cause: err}
	}
	return nil
}

func (r *sqliteArticleRepo) GetByURL(ctx context.Context, url string) (*core.Article, error) {
	row := r.x.QueryRowContext(ctx, `SELECT `+sqliteArticleColumns+` FROM articles WHERE url = ?`, url)
	a, err := scanSQLiteArticleRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	return a, nil
}

func (r *sqliteArticleRepo) ExistingURLs(ctx context.Context, providerID int) (map[string]bool, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT url FROM articles WHERE provider_id = ?`, providerID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out[u] = true
	}
	return out, rows.Err()
}

func (r *sqliteArticleRepo) Get(ctx context.Context, id int) (*core.Article, error) {
	row := r.x.QueryRowContext(ctx, `SELECT `+sqliteArticleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanSQLiteArticleRow(row)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	return a, nil
}

func (r *sqliteArticleRepo) ListSince(ctx context.Context, since time.Time) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT `+sqliteArticleColumns+` FROM articles WHERE ts >= ? ORDER BY ts DESC`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanSQLiteArticleRows(rows)
}

func (r *sqliteArticleRepo) List(ctx context.Context, opts persistence.ListOptions) ([]core.Article, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = 100
	}
	rows, err := r.x.QueryContext(ctx, `SELECT `+sqliteArticleColumns+` FROM articles ORDER BY date_added DESC LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanSQLiteArticleRows(rows)
}

func (r *sqliteArticleRepo) CountByProvider(ctx context.Context, since time.Time) (map[int]int, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT provider_id, count(*) FROM articles WHERE ts >= ? GROUP BY provider_id`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	out := make(map[int]int)
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// --- embeddings ---

type sqliteEmbeddingRepo struct{ x execer }

func (r *sqliteEmbeddingRepo) UnembeddedArticles(ctx context.Context, since time.Time) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT a.id, a.provider_id, a.ts, a.date, a.title, a.subtitle, a.url, a.body, a.cover_image_url, a.candidate_image_urls, a.date_fetched, a.date_added
		FROM articles a
		LEFT JOIN article_embeddings e ON a.id = e.article_id
		WHERE e.article_id IS NULL AND a.ts >= ?
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanSQLiteArticleRows(rows)
}

func (r *sqliteEmbeddingRepo) SaveArticleEmbedding(ctx context.Context, e *core.ArticleEmbedding) error {
	vecJSON, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT INTO article_embeddings (article_id, embedding) VALUES (?, ?)
		ON CONFLICT (article_id) DO UPDATE SET embedding = excluded.embedding
	`, e.ArticleID, string(vecJSON))
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "article_embeddings", Cause: err}
	}
	return nil
}

func (r *sqliteEmbeddingRepo) ArticleEmbeddingsSince(ctx context.Context, since time.Time) ([]core.ArticleEmbedding, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT e.article_id, e.embedding FROM article_embeddings e
		JOIN articles a ON a.id = e.article_id
		WHERE a.ts >= ?
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "article_embeddings", Cause: err}
	}
	defer rows.Close()
	var out []core.ArticleEmbedding
	for rows.Next() {
		var e core.ArticleEmbedding
		var vecJSON string
		if err := rows.Scan(&e.ArticleID, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vecJSON), &e.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqliteEmbeddingRepo) UnembeddedStories(ctx context.Context, since time.Time) ([]core.Story, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT s.id, s.ts, s.digest_id, s.label, s.headline, s.summary, s.coverage_summary
		FROM stories s
		LEFT JOIN story_embeddings e ON s.id = e.story_id
		WHERE e.story_id IS NULL AND s.ts >= ?
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "stories", Cause: err}
	}
	defer rows.Close()
	var out []core.Story
	for rows.Next() {
		var s core.Story
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.DigestID, &s.Label, &s.Headline, &s.Summary, &s.CoverageSummary); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqliteEmbeddingRepo) SaveStoryEmbedding(ctx context.Context, e *core.StoryEmbedding) error {
	vecJSON, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT INTO story_embeddings (story_id, embedding) VALUES (?, ?)
		ON CONFLICT (story_id) DO UPDATE SET embedding = excluded.embedding
	`, e.StoryID, string(vecJSON))
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "story_embeddings", Cause: err}
	}
	return nil
}

func (r *sqliteEmbeddingRepo) StoryEmbeddingsSince(ctx context.Context, since time.Time) ([]core.StoryEmbedding, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT e.story_id, e.embedding FROM story_embeddings e
		JOIN stories s ON s.id = e.story_id
		WHERE s.ts >= ?
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "story_embeddings", Cause: err}
	}
	defer rows.Close()
	var out []core.StoryEmbedding
	for rows.Next() {
		var e core.StoryEmbedding
		var vecJSON string
		if err := rows.Scan(&e.StoryID, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vecJSON), &e.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- stories ---

type sqliteStoryRepo struct{ x execer }

func (r *sqliteStoryRepo) Create(ctx context.Context, s *core.Story) (int, error) {
	res, err := r.x.ExecContext(ctx, `
		INSERT INTO stories (ts, digest_id, label, headline, summary, coverage_summary) VALUES (?, ?, ?, ?, ?, ?)
	`, s.Timestamp, s.DigestID, s.Label, s.Headline, s.Summary, s.CoverageSummary)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "stories", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "stories", Cause: err}
	}
	return int(id), nil
}

func (r *sqliteStoryRepo) AddArticles(ctx context.Context, storyID int, articleIDs []int) error {
	for _, aid := range articleIDs {
		if _, err := r.x.ExecContext(ctx, `INSERT OR IGNORE INTO story_articles (story_id, article_id) VALUES (?, ?)`, storyID, aid); err != nil {
			return &core.StoreError{Kind: "insert", Table: "story_articles", Cause: err}
		}
	}
	return nil
}

func (r *sqliteStoryRepo) ArticlesOf(ctx context.Context, storyID int) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT a.id, a.provider_id, a.ts, a.date, a.title, a.subtitle, a.url, a.body, a.cover_image_url, a.candidate_image_urls, a.date_fetched, a.date_added
		FROM articles a
		JOIN story_articles sa ON sa.article_id = a.id
		WHERE sa.story_id = ?
		ORDER BY a.ts DESC
	`, storyID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "story_articles", Cause: err}
	}
	defer rows.Close()
	return scanSQLiteArticleRows(rows)
}

func (r *sqliteStoryRepo) Get(ctx context.Context, id int) (*core.Story, error) {
	var s core.Story
	err := r.x.QueryRowContext(ctx, `
		SELECT id, ts, digest_id, label, headline, summary, coverage_summary FROM stories WHERE id = ?
	`, id).Scan(&s.ID, &s.Timestamp, &s.DigestID, &s.Label, &s.Headline, &s.Summary, &s.CoverageSummary)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "stories", Cause: err}
	}
	return &s, nil
}

func (r *sqliteStoryRepo) ListByDigest(ctx context.Context, digestID int) ([]core.Story, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT id, ts, digest_id, label, headline, summary, coverage_summary FROM stories WHERE digest_id = ?
	`, digestID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "stories", Cause: err}
	}
	defer rows.Close()
	var out []core.Story
	for rows.Next() {
		var s core.Story
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.DigestID, &s.Label, &s.Headline, &s.Summary, &s.CoverageSummary); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqliteStoryRepo) MaxDigestID(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := r.x.QueryRowContext(ctx, `SELECT MAX(digest_id) FROM stories`).Scan(&max)
	if err != nil {
		return 0, &core.StoreError{Kind: "query", Table: "stories", Cause: err}
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// --- keywords ---

type sqliteKeywordRepo struct{ x execer }

func (r *sqliteKeywordRepo) Upsert(ctx context.Context, text string, kind core.KeywordType) (int, error) {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO keywords (text, type) VALUES (?, ?) ON CONFLICT (text, type) DO UPDATE SET text = excluded.text
	`, text, kind)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "keywords", Cause: err}
	}
	var id int
	err = r.x.QueryRowContext(ctx, `SELECT id FROM keywords WHERE text = ? AND type = ?`, text, kind).Scan(&id)
	if err != nil {
		return 0, &core.StoreError{Kind: "query", Table: "keywords", Cause: err}
	}
	return id, nil
}

func (r *sqliteKeywordRepo) LinkStory(ctx context.Context, storyID, keywordID int) error {
	_, err := r.x.ExecContext(ctx, `INSERT OR IGNORE INTO story_keywords (story_id, keyword_id) VALUES (?, ?)`, storyID, keywordID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "story_keywords", Cause: err}
	}
	return nil
}

func (r *sqliteKeywordRepo) LinkTimeline(ctx context.Context, timelineID, keywordID int) error {
	_, err := r.x.ExecContext(ctx, `INSERT OR IGNORE INTO timeline_keywords (timeline_id, keyword_id) VALUES (?, ?)`, timelineID, keywordID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_keywords", Cause: err}
	}
	return nil
}

func (r *sqliteKeywordRepo) ForStory(ctx context.Context, storyID int) ([]core.Keyword, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT k.id, k.text, k.type FROM keywords k
		JOIN story_keywords sk ON sk.keyword_id = k.id
		WHERE sk.story_id = ?
	`, storyID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "keywords", Cause: err}
	}
	defer rows.Close()
	var out []core.Keyword
	for rows.Next() {
		var k core.Keyword
		if err := rows.Scan(&k.ID, &k.Text, &k.Type); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// --- digests ---

type sqliteDigestRepo struct{ x execer }

func (r *sqliteDigestRepo) Create(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	res, err := r.x.ExecContext(ctx, `INSERT INTO digests (state, created_at, updated_at) VALUES (?, ?, ?)`, string(core.StateCreated), now, now)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "digests", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "digests", Cause: err}
	}
	return int(id), nil
}

func scanSQLiteDigestRow(row *sql.Row) (*core.Digest, error) {
	var d core.Digest
	var state string
	if err := row.Scan(&d.ID, &state, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.State = core.DigestState(state)
	return &d, nil
}

func (r *sqliteDigestRepo) Get(ctx context.Context, id int) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `SELECT id, state, created_at, updated_at FROM digests WHERE id = ?`, id)
	d, err := scanSQLiteDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *sqliteDigestRepo) LatestIncomplete(ctx context.Context) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `
		SELECT id, state, created_at, updated_at FROM digests WHERE state != ? ORDER BY id DESC LIMIT 1
	`, string(core.StateReady))
	d, err := scanSQLiteDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *sqliteDigestRepo) LatestReady(ctx context.Context) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `
		SELECT id, state, created_at, updated_at FROM digests WHERE state = ? ORDER BY id DESC LIMIT 1
	`, string(core.StateReady))
	d, err := scanSQLiteDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *sqliteDigestRepo) SetState(ctx context.Context, id int, state core.DigestState) error {
	_, err := r.x.ExecContext(ctx, `UPDATE digests SET state = ?, updated_at = ? WHERE id = ?`, string(state), time.Now().UTC(), id)
	if err != nil {
		return &core.StoreError{Kind: "update", Table: "digests", Cause: err}
	}
	return nil
}

// --- rundowns ---

type sqliteRundownRepo struct{ x execer }

func (r *sqliteRundownRepo) Save(ctx context.Context, rd *core.DigestRundown) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO digest_rundowns (digest_id, type, text) VALUES (?, ?, ?)
		ON CONFLICT (digest_id, type) DO UPDATE SET text = excluded.text
	`, rd.DigestID, rd.Type, rd.Text)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "digest_rundowns", Cause: err}
	}
	return nil
}

func (r *sqliteRundownRepo) ForDigest(ctx context.Context, digestID int) ([]core.DigestRundown, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT digest_id, type, text FROM digest_rundowns WHERE digest_id = ?`, digestID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "digest_rundowns", Cause: err}
	}
	defer rows.Close()
	var out []core.DigestRundown
	for rows.Next() {
		var d core.DigestRundown
		if err := rows.Scan(&d.DigestID, &d.Type, &d.Text); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- timelines ---

type sqliteTimelineRepo struct{ x execer }

func (r *sqliteTimelineRepo) Create(ctx context.Context, t *core.Timeline) (int, error) {
	res, err := r.x.ExecContext(ctx, `
		INSERT INTO timelines (digest_id, subject, headline, summary) VALUES (?, ?, ?, ?)
	`, t.DigestID, t.Subject, t.Headline, t.Summary)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "timelines", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "timelines", Cause: err}
	}
	return int(id), nil
}

func (r *sqliteTimelineRepo) AddEvent(ctx context.Context, e *core.TimelineEvent) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT OR IGNORE INTO timeline_events (timeline_id, story_id, description, date, date_type) VALUES (?, ?, ?, ?, ?)
	`, e.TimelineID, e.StoryID, e.Description, e.Date, string(e.Precision))
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_events", Cause: err}
	}
	return nil
}

func (r *sqliteTimelineRepo) AddStory(ctx context.Context, timelineID, storyID int) error {
	_, err := r.x.ExecContext(ctx, `INSERT OR IGNORE INTO timeline_stories (timeline_id, story_id) VALUES (?, ?)`, timelineID, storyID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_stories", Cause: err}
	}
	return nil
}

func (r *sqliteTimelineRepo) ForDigest(ctx context.Context, digestID int) ([]core.Timeline, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT id, digest_id, subject, headline, summary FROM timelines WHERE digest_id = ?`, digestID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "timelines", Cause: err}
	}
	defer rows.Close()
	var out []core.Timeline
	for rows.Next() {
		var t core.Timeline
		if err := rows.Scan(&t.ID, &t.DigestID, &t.Subject, &t.Headline, &t.Summary); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
