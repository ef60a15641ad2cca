package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect or bootstrap the provider table",
}

var providersSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the static 23-provider table (country/timezone/homepage/favicon)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seedProviders(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Println("providers seeded")
		return nil
	},
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the providers currently in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		providers, err := db.Providers().List(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range providers {
			fmt.Printf("%3d  %-24s %-4s %-24s %s\n", p.ID, p.Name, p.Country, p.Timezone, p.Homepage)
		}
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersSeedCmd, providersListCmd)
	rootCmd.AddCommand(providersCmd)
}
