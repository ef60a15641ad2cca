package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
	"newsdigest/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to the Postgres store profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfg.Store.ActiveProfile == "local" {
			fmt.Println("active profile is local (sqlite); schema is initialised automatically, nothing to do")
			return nil
		}

		conn, ok := cfg.Store.Profiles[cfg.Store.ActiveProfile]
		if !ok {
			return fmt.Errorf("no profile %q in store.profiles", cfg.Store.ActiveProfile)
		}
		db, err := persistence.NewPostgresDB(conn)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		defer db.Close()

		mgr := persistence.NewMigrationManager(db)
		if err := mgr.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
