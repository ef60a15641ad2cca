package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"newsdigest/internal/config"
	"newsdigest/internal/observability"
	"newsdigest/internal/persistence"
	"newsdigest/internal/providerfilter"
	"newsdigest/internal/store"
)

// openDatabase opens the active store profile named in config: "local"
// selects the embedded SQLite store, anything else looks up a Postgres
// connection string in store.profiles.
func openDatabase(cfg *config.Config) (persistence.Database, error) {
	if cfg.Store.ActiveProfile == "local" {
		db, err := store.NewStore(cfg.Store.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return db, nil
	}

	conn, ok := cfg.Store.Profiles[cfg.Store.ActiveProfile]
	if !ok {
		return nil, fmt.Errorf("no profile %q in store.profiles", cfg.Store.ActiveProfile)
	}
	db, err := persistence.NewPostgresDB(conn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	mgr := persistence.NewMigrationManager(db)
	if err := mgr.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

func openPostHog(cfg config.PostHogConfig, log *slog.Logger) (*observability.PostHogClient, error) {
	client, err := observability.NewPostHogClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create posthog client: %w", err)
	}
	return client, nil
}

// seedProvidersIfEmpty bootstraps the providers table from the static
// 23-provider seed the first time the table is empty, so a freshly
// initialised store has something for C3 to crawl. It is a no-op on any
// store that already has provider rows.
func seedProvidersIfEmpty(ctx context.Context, db persistence.Database) error {
	existing, err := db.Providers().List(ctx)
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	return seedProviders(ctx, db)
}

// seedProviders upserts the full static provider table unconditionally,
// used by the explicit `providers seed` command to re-apply the seed (e.g.
// after adding a homepage/favicon correction to the table itself).
func seedProviders(ctx context.Context, db persistence.Database) error {
	for _, p := range providerfilter.Seed() {
		p := p
		if err := db.Providers().Upsert(ctx, &p); err != nil {
			return fmt.Errorf("seed provider %q: %w", p.Name, err)
		}
	}
	return nil
}
