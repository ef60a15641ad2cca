package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsdigest/internal/clustering"
	"newsdigest/internal/collector"
	"newsdigest/internal/config"
	"newsdigest/internal/core"
	"newsdigest/internal/digest"
	"newsdigest/internal/embedder"
	"newsdigest/internal/logger"
	"newsdigest/internal/persistence"
	"newsdigest/internal/providerfilter"
	"newsdigest/internal/story"
	"newsdigest/internal/summarizer"
	"newsdigest/internal/timeline"
)

// storyEmbeddingWindow matches internal/story's embeddingWindow; it is not
// exported, so the CLI keeps its own copy for the embed-articles command.
const storyEmbeddingWindow = 48 * time.Hour
const timelineEmbeddingWindow = 14 * 24 * time.Hour

func newController(db persistence.Database, cfg *config.Config) (*digest.Controller, error) {
	posthog, err := openPostHog(cfg.Observability.PostHog, logger.Get())
	if err != nil {
		return nil, err
	}
	return digest.New(db, posthog, logger.Get()), nil
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Create or resume a digest and run the collector (C3)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := seedProvidersIfEmpty(ctx, db); err != nil {
			return err
		}

		if _, err := ctrl.LatestIncomplete(ctx); err != nil {
			if _, err := ctrl.Create(ctx); err != nil {
				return err
			}
		}

		c := collector.New(db, providerfilter.New(), cfg.Collector, logger.Get())
		return ctrl.Advance(ctx, core.StateCreated, core.StateArticlesCollected, func(ctx context.Context, digestID int) error {
			report, err := c.Run(ctx)
			if err != nil {
				return err
			}
			logger.Get().Info("collect complete", "digest_id", digestID, "accepted", report.Accepted, "providers_failed", report.ProvidersFailed)
			return nil
		})
	},
}

var embedArticlesCmd = &cobra.Command{
	Use:   "embed-articles",
	Short: "Embed uncovered articles (C4, articles mode)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		emb, err := embedder.New(ctx, db, cfg.Gemini, logger.Get())
		if err != nil {
			return err
		}

		return ctrl.Advance(ctx, core.StateArticlesCollected, core.StateArticlesEmbedded, func(ctx context.Context, digestID int) error {
			report, err := emb.Run(ctx, embedder.ModeArticles, time.Now().Add(-storyEmbeddingWindow))
			if err != nil {
				return err
			}
			logger.Get().Info("article embedding complete", "digest_id", digestID, "embedded", report.Embedded, "attempted", report.Attempted)
			return nil
		})
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster embedded articles into stories (C5)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		summ, err := summarizer.New(ctx, cfg.Gemini, logger.Get())
		if err != nil {
			return err
		}
		builder := story.New(db, clustering.New(3), summ, clustering.NewCoherenceChecker(logger.Get()), logger.Get())

		return ctrl.Advance(ctx, core.StateArticlesEmbedded, core.StateStoriesGenerated, func(ctx context.Context, digestID int) error {
			report, err := builder.Run(ctx, digestID)
			if err != nil {
				return err
			}
			logger.Get().Info("story formation complete", "digest_id", digestID, "clusters", report.ClustersFound, "stories_admitted", report.StoriesAdmitted)
			return nil
		})
	},
}

var embedStoriesCmd = &cobra.Command{
	Use:   "embed-stories",
	Short: "Embed newly generated stories (C4, stories mode)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		emb, err := embedder.New(ctx, db, cfg.Gemini, logger.Get())
		if err != nil {
			return err
		}

		return ctrl.Advance(ctx, core.StateStoriesGenerated, core.StateStoriesEmbedded, func(ctx context.Context, digestID int) error {
			report, err := emb.Run(ctx, embedder.ModeStories, time.Now().Add(-timelineEmbeddingWindow))
			if err != nil {
				return err
			}
			logger.Get().Info("story embedding complete", "digest_id", digestID, "embedded", report.Embedded, "attempted", report.Attempted)
			return nil
		})
	},
}

// imagesCmd advances STORIES_EMBEDDED -> IMAGES_COLLECTED. Cover and
// candidate image URLs are already extracted inline during collection
// (C3); this stage exists only so the state machine has a place for a
// future external image-search collaborator (config.ImageSearch) to hook
// into without renumbering states.
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Mark image collection complete (C3 already gathered candidate images)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		return ctrl.Advance(cmd.Context(), core.StateStoriesEmbedded, core.StateImagesCollected, func(ctx context.Context, digestID int) error {
			return nil
		})
	},
}

var rundownsCmd = &cobra.Command{
	Use:   "rundowns",
	Short: "Generate digest rundowns (C6, rundowns shape)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		summ, err := summarizer.New(ctx, cfg.Gemini, logger.Get())
		if err != nil {
			return err
		}

		return ctrl.Advance(ctx, core.StateImagesCollected, core.StateRundownsGenerated, func(ctx context.Context, digestID int) error {
			stories, err := db.Stories().ListByDigest(ctx, digestID)
			if err != nil {
				return fmt.Errorf("list stories for digest %d: %w", digestID, err)
			}

			var b strings.Builder
			for _, s := range stories {
				fmt.Fprintf(&b, "%s\n%s\n\n", s.Headline, s.Summary)
			}

			rundowns, err := summ.GenerateRundowns(ctx, cfg.Rundown.Categories, b.String())
			if err != nil {
				return err
			}

			for category, text := range rundowns {
				if err := db.Rundowns().Save(ctx, &core.DigestRundown{DigestID: digestID, Type: category, Text: text}); err != nil {
					return fmt.Errorf("save rundown %q: %w", category, err)
				}
			}
			logger.Get().Info("rundowns generated", "digest_id", digestID, "categories", len(rundowns))
			return nil
		})
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Mark the current digest READY",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl, err := newController(db, cfg)
		if err != nil {
			return err
		}

		return ctrl.Advance(cmd.Context(), core.StateRundownsGenerated, core.StateReady, func(ctx context.Context, digestID int) error {
			return nil
		})
	},
}

var timelinesCmd = &cobra.Command{
	Use:   "timelines",
	Short: "Cluster recent stories into durable timelines (C7)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		summ, err := summarizer.New(ctx, cfg.Gemini, logger.Get())
		if err != nil {
			return err
		}

		digestID, err := db.Stories().MaxDigestID(ctx)
		if err != nil {
			return fmt.Errorf("max digest id: %w", err)
		}

		builder := timeline.New(db, clustering.New(3), summ, logger.Get())
		report, err := builder.Run(ctx, digestID)
		if err != nil {
			return err
		}
		logger.Get().Info("timeline formation complete", "clusters", report.ClustersFound, "timelines_admitted", report.TimelinesAdmitted)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every pipeline stage for one digest, in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, stage := range []*cobra.Command{collectCmd, embedArticlesCmd, clusterCmd, embedStoriesCmd, imagesCmd, rundownsCmd, finishCmd} {
			if err := stage.RunE(cmd, nil); err != nil {
				return fmt.Errorf("stage %s: %w", stage.Use, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd, embedArticlesCmd, clusterCmd, embedStoriesCmd, imagesCmd, rundownsCmd, finishCmd, timelinesCmd, runCmd)
}
