package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
	"newsdigest/internal/server"
)

var rundownHTML bool

var rundownCmd = &cobra.Command{
	Use:   "rundown",
	Short: "Inspect digest rundowns",
}

var rundownViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the latest ready digest's rundowns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		d, err := db.Digests().LatestReady(ctx)
		if err != nil {
			return fmt.Errorf("no ready digest: %w", err)
		}

		rundowns, err := db.Rundowns().ForDigest(ctx, d.ID)
		if err != nil {
			return err
		}

		for _, r := range rundowns {
			fmt.Printf("=== %s ===\n", r.Type)
			if rundownHTML {
				fmt.Println(server.RenderRundownHTML(r.Text))
			} else {
				fmt.Println(r.Text)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rundownViewCmd.Flags().BoolVar(&rundownHTML, "html", false, "render each rundown as HTML instead of plain text")
	rundownCmd.AddCommand(rundownViewCmd)
	rootCmd.AddCommand(rundownCmd)
}
