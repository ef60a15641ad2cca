// Package cmd wires the pipeline stages and read API into a cobra CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "newsdigest",
	Short: "Collects, clusters and summarises news into a ranked digest",
	Long: `newsdigest runs the news-digest pipeline: it collects articles from a
fixed set of providers, embeds and clusters them into stories, summarises
each story and aggregates long-running stories into timelines, then serves
the most recent completed digest over a small read API.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./config.json", "path to the JSON config file")
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
