package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsdigest/internal/config"
	"newsdigest/internal/logger"
	"newsdigest/internal/ranker"
	"newsdigest/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read API (C9): ranked stories, refreshed every poll interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		assembler := ranker.New(db, logger.Get(), cfg.Server.RefreshInterval)
		if err := assembler.Refresh(ctx); err != nil {
			logger.Get().Warn("initial ranker refresh failed", "error", err)
		}
		assembler.Start(ctx)

		srv := server.New(assembler, cfg.Server, logger.Get())
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
