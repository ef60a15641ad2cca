// Package persistence provides database implementations of the Database
// interface.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"newsdigest/internal/core"

	_ "github.com/lib/pq" // Postgres driver
)

// execer is the subset of *sql.DB / *sql.Tx every repo needs; letting a
// repo bind to either lets the same repo implementation serve both the
// plain-connection and transactional paths.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgresDB implements the Database interface for PostgreSQL.
type PostgresDB struct {
	db         *sql.DB
	providers  ProviderRepository
	articles   ArticleRepository
	embeddings EmbeddingRepository
	stories    StoryRepository
	keywords   KeywordRepository
	digests    DigestRepository
	rundowns   RundownRepository
	timelines  TimelineRepository
}

// NewPostgresDB creates a new PostgreSQL database connection.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, &core.StoreError{Kind: "connect", Cause: err}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, &core.StoreError{Kind: "connect", Cause: err}
	}

	p := &PostgresDB{db: db}
	p.bind(db)
	return p, nil
}

func (p *PostgresDB) bind(x execer) {
	p.providers = &providerRepo{x: x}
	p.articles = &articleRepo{x: x}
	p.embeddings = &embeddingRepo{x: x}
	p.stories = &storyRepo{x: x}
	p.keywords = &keywordRepo{x: x}
	p.digests = &digestRepo{x: x}
	p.rundowns = &rundownRepo{x: x}
	p.timelines = &timelineRepo{x: x}
}

func (p *PostgresDB) Providers() ProviderRepository   { return p.providers }
func (p *PostgresDB) Articles() ArticleRepository     { return p.articles }
func (p *PostgresDB) Embeddings() EmbeddingRepository { return p.embeddings }
func (p *PostgresDB) Stories() StoryRepository        { return p.stories }
func (p *PostgresDB) Keywords() KeywordRepository     { return p.keywords }
func (p *PostgresDB) Digests() DigestRepository       { return p.digests }
func (p *PostgresDB) Rundowns() RundownRepository     { return p.rundowns }
func (p *PostgresDB) Timelines() TimelineRepository   { return p.timelines }

func (p *PostgresDB) Close() error { return p.db.Close() }

func (p *PostgresDB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresDB) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StoreError{Kind: "begin_tx", Cause: err}
	}
	t := &postgresTx{tx: tx}
	t.providers = &providerRepo{x: tx}
	t.articles = &articleRepo{x: tx}
	t.embeddings = &embeddingRepo{x: tx}
	t.stories = &storyRepo{x: tx}
	t.keywords = &keywordRepo{x: tx}
	t.digests = &digestRepo{x: tx}
	t.rundowns = &rundownRepo{x: tx}
	t.timelines = &timelineRepo{x: tx}
	return t, nil
}

// postgresTx implements Transaction.
type postgresTx struct {
	tx         *sql.Tx
	providers  ProviderRepository
	articles   ArticleRepository
	embeddings EmbeddingRepository
	stories    StoryRepository
	keywords   KeywordRepository
	digests    DigestRepository
	rundowns   RundownRepository
	timelines  TimelineRepository
}

func (t *postgresTx) Commit() error                   { return t.tx.Commit() }
func (t *postgresTx) Rollback() error                 { return t.tx.Rollback() }
func (t *postgresTx) Providers() ProviderRepository   { return t.providers }
func (t *postgresTx) Articles() ArticleRepository     { return t.articles }
func (t *postgresTx) Embeddings() EmbeddingRepository { return t.embeddings }
func (t *postgresTx) Stories() StoryRepository        { return t.stories }
func (t *postgresTx) Keywords() KeywordRepository     { return t.keywords }
func (t *postgresTx) Digests() DigestRepository       { return t.digests }
func (t *postgresTx) Rundowns() RundownRepository     { return t.rundowns }
func (t *postgresTx) Timelines() TimelineRepository   { return t.timelines }

const articleColumns = `id, provider_id, ts, date, title, subtitle, url, body, cover_image_url, candidate_image_urls, date_fetched, date_added`

// qualifyColumns prefixes a comma-separated column list with a table alias,
// for queries that join articles against another table.
func qualifyColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// --- providers ---

type providerRepo struct{ x execer }

func (r *providerRepo) List(ctx context.Context) ([]core.Provider, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT id, name, homepage, favicon, country, timezone FROM providers ORDER BY id`)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "providers", Cause: err}
	}
	defer rows.Close()
	var out []core.Provider
	for rows.Next() {
		var p core.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Homepage, &p.Favicon, &p.Country, &p.Timezone); err != nil {
			return nil, &core.StoreError{Kind: "scan", Table: "providers", Cause: err}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *providerRepo) Get(ctx context.Context, id int) (*core.Provider, error) {
	var p core.Provider
	err := r.x.QueryRowContext(ctx, `SELECT id, name, homepage, favicon, country, timezone FROM providers WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Homepage, &p.Favicon, &p.Country, &p.Timezone)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "providers", Cause: err}
	}
	return &p, nil
}

func (r *providerRepo) Upsert(ctx context.Context, p *core.Provider) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO providers (id, name, homepage, favicon, country, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, homepage = EXCLUDED.homepage, favicon = EXCLUDED.favicon,
			country = EXCLUDED.country, timezone = EXCLUDED.timezone
	`, p.ID, p.Name, p.Homepage, p.Favicon, p.Country, p.Timezone)
	if err != nil {
		return &core.StoreError{Kind: "upsert", Table: "providers", Cause: err}
	}
	return nil
}

// --- articles ---

type articleRepo struct{ x execer }

func (r *articleRepo) Create(ctx context.Context, a *core.Article) error {
	imagesJSON, err := json.Marshal(a.CandidateImageURLs)
	if err != nil {
		return fmt.Errorf("marshal candidate images: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT INTO articles (provider_id, ts, date, title, subtitle, url, body, cover_image_url, candidate_image_urls, date_fetched, date_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (url) DO NOTHING
	`, a.ProviderID, a.Timestamp, a.Date, a.Title, a.Subtitle, a.URL, a.Body, a.CoverImageURL, imagesJSON, a.DateFetched, a.DateAdded)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "articles", Cause: err}
	}
	return nil
}

func scanArticleRow(row *sql.Row) (*core.Article, error) {
	var a core.Article
	var imagesJSON []byte
	err := row.Scan(&a.ID, &a.ProviderID, &a.Timestamp, &a.Date, &a.Title, &a.Subtitle, &a.URL, &a.Body,
		&a.CoverImageURL, &imagesJSON, &a.DateFetched, &a.DateAdded)
	if err != nil {
		return nil, err
	}
	if len(imagesJSON) > 0 {
		_ = json.Unmarshal(imagesJSON, &a.CandidateImageURLs)
	}
	return &a, nil
}

func scanArticleRows(rows *sql.Rows) ([]core.Article, error) {
	var out []core.Article
	for rows.Next() {
		var a core.Article
		var imagesJSON []byte
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.Timestamp, &a.Date, &a.Title, &a.Subtitle, &a.URL, &a.Body,
			&a.CoverImageURL, &imagesJSON, &a.DateFetched, &a.DateAdded); err != nil {
			return nil, err
		}
		if len(imagesJSON) > 0 {
			_ = json.Unmarshal(imagesJSON, &a.CandidateImageURLs)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *articleRepo) GetByURL(ctx context.Context, url string) (*core.Article, error) {
	row := r.x.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE url = $1`, url)
	a, err := scanArticleRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	return a, nil
}

func (r *articleRepo) ExistingURLs(ctx context.Context, providerID int) (map[string]bool, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT url FROM articles WHERE provider_id = $1`, providerID)
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

func (r *articleRepo) Get(ctx context.Context, id int) (*core.Article, error) {
	row := r.x.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticleRow(row)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	return a, nil
}

func (r *articleRepo) ListSince(ctx context.Context, since time.Time) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE ts >= $1 ORDER BY ts DESC`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanArticleRows(rows)
}

func (r *articleRepo) List(ctx context.Context, opts ListOptions) ([]core.Article, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = 100
	}
	rows, err := r.x.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY date_added DESC LIMIT $1 OFFSET $2`, limit, opts.Offset)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanArticleRows(rows)
}

func (r *articleRepo) CountByProvider(ctx context.Context, since time.Time) (map[int]int, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT provider_id, count(*) FROM articles WHERE ts >= $1 GROUP BY provider_id`, since)
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

type embeddingRepo struct{ x execer }

func (r *embeddingRepo) UnembeddedArticles(ctx context.Context, since time.Time) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT `+qualifyColumns("a", articleColumns)+` FROM articles a
		LEFT JOIN article_embeddings e ON a.id = e.article_id
		WHERE e.article_id IS NULL AND a.ts >= $1
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "articles", Cause: err}
	}
	defer rows.Close()
	return scanArticleRows(rows)
}

func (r *embeddingRepo) SaveArticleEmbedding(ctx context.Context, e *core.ArticleEmbedding) error {
	vecJSON, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT INTO article_embeddings (article_id, embedding) VALUES ($1, $2)
		ON CONFLICT (article_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`, e.ArticleID, vecJSON)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "article_embeddings", Cause: err}
	}
	return nil
}

func (r *embeddingRepo) ArticleEmbeddingsSince(ctx context.Context, since time.Time) ([]core.ArticleEmbedding, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT e.article_id, e.embedding FROM article_embeddings e
		JOIN articles a ON a.id = e.article_id
		WHERE a.ts >= $1
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "article_embeddings", Cause: err}
	}
	defer rows.Close()
	var out []core.ArticleEmbedding
	for rows.Next() {
		var e core.ArticleEmbedding
		var vecJSON []byte
		if err := rows.Scan(&e.ArticleID, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vecJSON, &e.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *embeddingRepo) UnembeddedStories(ctx context.Context, since time.Time) ([]core.Story, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT s.id, s.ts, s.digest_id, s.label, s.headline, s.summary, s.coverage_summary
		FROM stories s
		LEFT JOIN story_embeddings e ON s.id = e.story_id
		WHERE e.story_id IS NULL AND s.ts >= $1
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

func (r *embeddingRepo) SaveStoryEmbedding(ctx context.Context, e *core.StoryEmbedding) error {
	vecJSON, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	_, err = r.x.ExecContext(ctx, `
		INSERT INTO story_embeddings (story_id, embedding) VALUES ($1, $2)
		ON CONFLICT (story_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`, e.StoryID, vecJSON)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "story_embeddings", Cause: err}
	}
	return nil
}

func (r *embeddingRepo) StoryEmbeddingsSince(ctx context.Context, since time.Time) ([]core.StoryEmbedding, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT e.story_id, e.embedding FROM story_embeddings e
		JOIN stories s ON s.id = e.story_id
		WHERE s.ts >= $1
	`, since)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "story_embeddings", Cause: err}
	}
	defer rows.Close()
	var out []core.StoryEmbedding
	for rows.Next() {
		var e core.StoryEmbedding
		var vecJSON []byte
		if err := rows.Scan(&e.StoryID, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vecJSON, &e.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- stories ---

type storyRepo struct{ x execer }

func (r *storyRepo) Create(ctx context.Context, s *core.Story) (int, error) {
	var id int
	err := r.x.QueryRowContext(ctx, `
		INSERT INTO stories (ts, digest_id, label, headline, summary, coverage_summary)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, s.Timestamp, s.DigestID, s.Label, s.Headline, s.Summary, s.CoverageSummary).Scan(&id)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "stories", Cause: err}
	}
	return id, nil
}

func (r *storyRepo) AddArticles(ctx context.Context, storyID int, articleIDs []int) error {
	for _, aid := range articleIDs {
		if _, err := r.x.ExecContext(ctx, `INSERT INTO story_articles (story_id, article_id) VALUES ($1, $2)`, storyID, aid); err != nil {
			return &core.StoreError{Kind: "insert", Table: "story_articles", Cause: err}
		}
	}
	return nil
}

func (r *storyRepo) ArticlesOf(ctx context.Context, storyID int) ([]core.Article, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT `+qualifyColumns("a", articleColumns)+` FROM articles a
		JOIN story_articles sa ON sa.article_id = a.id
		WHERE sa.story_id = $1
		ORDER BY a.ts DESC
	`, storyID)
	if err != nil {
		return nil, &core.StoreError{Kind: "query", Table: "story_articles", Cause: err}
	}
	defer rows.Close()
	return scanArticleRows(rows)
}

func (r *storyRepo) Get(ctx context.Context, id int) (*core.Story, error) {
	var s core.Story
	err := r.x.QueryRowContext(ctx, `
		SELECT id, ts, digest_id, label, headline, summary, coverage_summary FROM stories WHERE id = $1
	`, id).Scan(&s.ID, &s.Timestamp, &s.DigestID, &s.Label, &s.Headline, &s.Summary, &s.CoverageSummary)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "stories", Cause: err}
	}
	return &s, nil
}

func (r *storyRepo) ListByDigest(ctx context.Context, digestID int) ([]core.Story, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT id, ts, digest_id, label, headline, summary, coverage_summary FROM stories WHERE digest_id = $1
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

func (r *storyRepo) MaxDigestID(ctx context.Context) (int, error) {
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

type keywordRepo struct{ x execer }

func (r *keywordRepo) Upsert(ctx context.Context, text string, kind core.KeywordType) (int, error) {
	var id int
	err := r.x.QueryRowContext(ctx, `
		INSERT INTO keywords (text, type) VALUES ($1, $2)
		ON CONFLICT (text, type) DO UPDATE SET text = EXCLUDED.text
		RETURNING id
	`, text, kind).Scan(&id)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "keywords", Cause: err}
	}
	return id, nil
}

func (r *keywordRepo) LinkStory(ctx context.Context, storyID, keywordID int) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO story_keywords (story_id, keyword_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, storyID, keywordID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "story_keywords", Cause: err}
	}
	return nil
}

func (r *keywordRepo) LinkTimeline(ctx context.Context, timelineID, keywordID int) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO timeline_keywords (timeline_id, keyword_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, timelineID, keywordID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_keywords", Cause: err}
	}
	return nil
}

func (r *keywordRepo) ForStory(ctx context.Context, storyID int) ([]core.Keyword, error) {
	rows, err := r.x.QueryContext(ctx, `
		SELECT k.id, k.text, k.type FROM keywords k
		JOIN story_keywords sk ON sk.keyword_id = k.id
		WHERE sk.story_id = $1
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

type digestRepo struct{ x execer }

func (r *digestRepo) Create(ctx context.Context) (int, error) {
	var id int
	now := time.Now().UTC()
	err := r.x.QueryRowContext(ctx, `
		INSERT INTO digests (state, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id
	`, string(core.StateCreated), now).Scan(&id)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "digests", Cause: err}
	}
	return id, nil
}

func scanDigestRow(row *sql.Row) (*core.Digest, error) {
	var d core.Digest
	var state string
	if err := row.Scan(&d.ID, &state, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.State = core.DigestState(state)
	return &d, nil
}

func (r *digestRepo) Get(ctx context.Context, id int) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `SELECT id, state, created_at, updated_at FROM digests WHERE id = $1`, id)
	d, err := scanDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *digestRepo) LatestIncomplete(ctx context.Context) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `
		SELECT id, state, created_at, updated_at FROM digests
		WHERE state != $1 ORDER BY id DESC LIMIT 1
	`, string(core.StateReady))
	d, err := scanDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *digestRepo) LatestReady(ctx context.Context) (*core.Digest, error) {
	row := r.x.QueryRowContext(ctx, `
		SELECT id, state, created_at, updated_at FROM digests
		WHERE state = $1 ORDER BY id DESC LIMIT 1
	`, string(core.StateReady))
	d, err := scanDigestRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &core.StoreError{Kind: "query", Table: "digests", Cause: err}
	}
	return d, nil
}

func (r *digestRepo) SetState(ctx context.Context, id int, state core.DigestState) error {
	_, err := r.x.ExecContext(ctx, `UPDATE digests SET state = $1, updated_at = $2 WHERE id = $3`, string(state), time.Now().UTC(), id)
	if err != nil {
		return &core.StoreError{Kind: "update", Table: "digests", Cause: err}
	}
	return nil
}

// --- rundowns ---

type rundownRepo struct{ x execer }

func (r *rundownRepo) Save(ctx context.Context, rd *core.DigestRundown) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO digest_rundowns (digest_id, type, text) VALUES ($1, $2, $3)
		ON CONFLICT (digest_id, type) DO UPDATE SET text = EXCLUDED.text
	`, rd.DigestID, rd.Type, rd.Text)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "digest_rundowns", Cause: err}
	}
	return nil
}

func (r *rundownRepo) ForDigest(ctx context.Context, digestID int) ([]core.DigestRundown, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT digest_id, type, text FROM digest_rundowns WHERE digest_id = $1`, digestID)
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

type timelineRepo struct{ x execer }

func (r *timelineRepo) Create(ctx context.Context, t *core.Timeline) (int, error) {
	var id int
	err := r.x.QueryRowContext(ctx, `
		INSERT INTO timelines (digest_id, subject, headline, summary) VALUES ($1, $2, $3, $4) RETURNING id
	`, t.DigestID, t.Subject, t.Headline, t.Summary).Scan(&id)
	if err != nil {
		return 0, &core.StoreError{Kind: "insert", Table: "timelines", Cause: err}
	}
	return id, nil
}

func (r *timelineRepo) AddEvent(ctx context.Context, e *core.TimelineEvent) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO timeline_events (timeline_id, story_id, description, date, date_type) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (timeline_id, description) DO NOTHING
	`, e.TimelineID, e.StoryID, e.Description, e.Date, string(e.Precision))
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_events", Cause: err}
	}
	return nil
}

func (r *timelineRepo) AddStory(ctx context.Context, timelineID, storyID int) error {
	_, err := r.x.ExecContext(ctx, `
		INSERT INTO timeline_stories (timeline_id, story_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, timelineID, storyID)
	if err != nil {
		return &core.StoreError{Kind: "insert", Table: "timeline_stories", Cause: err}
	}
	return nil
}

func (r *timelineRepo) ForDigest(ctx context.Context, digestID int) ([]core.Timeline, error) {
	rows, err := r.x.QueryContext(ctx, `SELECT id, digest_id, subject, headline, summary FROM timelines WHERE digest_id = $1`, digestID)
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
