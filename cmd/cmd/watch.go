package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
	"newsdigest/internal/tui"
)

var watchDigestID int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a digest's pipeline progress live",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		digestID := watchDigestID
		if digestID == 0 {
			d, err := db.Digests().LatestIncomplete(cmd.Context())
			if err != nil {
				return err
			}
			digestID = d.ID
		}

		return tui.Run(db, digestID, 2*time.Second)
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchDigestID, "digest", 0, "digest id to watch (0: the latest incomplete digest)")
	rootCmd.AddCommand(watchCmd)
}
