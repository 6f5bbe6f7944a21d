package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"NewsBrief/internal/app"
	"NewsBrief/internal/config"
	"NewsBrief/internal/logging"
)

var (
	flagConfig     string
	flagKeyword    string
	flagKeywords   []string
	flagPublishers []string
	flagCategories []string
)

var rootCmd = &cobra.Command{
	Use:          "newsbrief",
	Short:        "Korean news crawler, enricher and recommender",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	recommendCmd.Flags().StringVar(&flagKeyword, "keyword", "", "search a single keyword instead of the user's list")
	followCmd.Flags().StringSliceVar(&flagKeywords, "keyword", nil, "keyword to follow (repeatable)")
	followCmd.Flags().StringSliceVar(&flagPublishers, "publisher", nil, "preferred publisher name (repeatable)")
	followCmd.Flags().StringSliceVar(&flagCategories, "category", nil, "preferred category name (repeatable)")

	rootCmd.AddCommand(migrateCmd, crawlCmd, workerCmd, serveCmd, indexCmd, recommendCmd, followCmd, voiceCmd, historyCmd)
}

// withApp loads configuration, connects every backend and hands the
// application to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application, logger *slog.Logger) error) error {
	cfg := config.Load(flagConfig)
	logger := logging.New(cfg.Logging)
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.Close()

	if err := fn(ctx, a, logger); err != nil {
		logger.Error("command failed", "command", cmd.Name(), "error", err)
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the relational schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema ready")
			return nil
		})
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the crawl pipeline once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			report, err := a.Crawl(ctx)
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume enrichment queues until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			return a.Work(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the crawl scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			return a.Serve(ctx)
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <user-id>",
	Short: "Index today's articles matching a user's preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			res, err := a.Indexer.IndexForUser(ctx, args[0])
			if err != nil {
				return err
			}
			for _, f := range res.Failed {
				logger.Warn("document not indexed", "article_id", f.ID, "reason", f.Reason)
			}
			fmt.Printf("indexed %d, failed %d\n", res.Indexed, len(res.Failed))
			return nil
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Print recommendations for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			if flagKeyword != "" {
				recs, err := a.Recommender.RecommendByKeyword(ctx, args[0], flagKeyword)
				if err != nil {
					return err
				}
				return printJSON(recs)
			}
			recs, err := a.Recommender.Recommend(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(recs)
		})
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Add keywords, publishers and categories to a user's preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(flagKeywords)+len(flagPublishers)+len(flagCategories) == 0 {
			return fmt.Errorf("nothing to follow: pass --keyword, --publisher or --category")
		}
		return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			if err := a.Follow(ctx, args[0], flagKeywords, flagPublishers, flagCategories); err != nil {
				return err
			}
			logger.Info("preferences updated", "user_id", args[0],
				"keywords", len(flagKeywords), "publishers", len(flagPublishers), "categories", len(flagCategories))
			return nil
		})
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice <user-id> [male|female]",
	Short: "Show or set a user's voice type",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			if len(args) == 2 {
				if _, err := a.Users.SetVoiceType(ctx, args[0], args[1]); err != nil {
					return err
				}
			}
			prefs, err := a.Users.Preferences(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(prefs)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print the articles a user viewed, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			entries, err := a.Users.History(ctx, args[0], 0)
			if err != nil {
				return err
			}
			return printJSON(entries)
		})
	},
}
