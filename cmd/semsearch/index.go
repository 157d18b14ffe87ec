package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/config"
	dbRedis "github.com/sagar8080/semantic-search-system/internal/db/redis"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
)

// withStore loads config, connects and runs fn; the store is closed afterwards.
func withStore(
	cmd *cobra.Command, opts *globalOptions,
	fn func(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) error,
) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(cmd.Context(), cfg, store, logger)
}

func newIndexCmd(opts *globalOptions) *cobra.Command {
	index := &cobra.Command{
		Use:   "index",
		Short: "Manage the search index",
	}
	index.AddCommand(newIndexEnsureCmd(opts), newIndexStatsCmd(opts), newIndexDropCmd(opts))
	return index
}

func newIndexEnsureCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the search index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) error {
				created, err := searchrepo.EnsureIndex(ctx, store,
					cfg.Database.Index, cfg.Database.KeyPrefix, cfg.Embedding.Dimensions,
					searchrepo.HNSWConfig{M: cfg.Database.HNSWM, EFConstruct: cfg.Database.HNSWEFConstruct},
				)
				if err != nil {
					return err
				}

				logger.Info("Index ensured", zap.String("index", cfg.Database.Index), zap.Bool("created", created))
				if created {
					cmd.Printf("created index %s\n", cfg.Database.Index)
				} else {
					cmd.Printf("index %s already exists\n", cfg.Database.Index)
				}
				return nil
			})
		},
	}
}

func newIndexStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document count and indexing progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, cfg config.Config, store *dbRedis.Store, _ *zap.Logger) error {
				st, err := searchrepo.IndexStats(ctx, store, cfg.Database.Index)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func newIndexDropCmd(opts *globalOptions) *cobra.Command {
	var deleteDocs, yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deleteDocs && !yes {
				return errors.New("--delete-docs removes every stored press release; pass --yes to confirm")
			}
			return withStore(cmd, opts, func(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) error {
				if err := searchrepo.DropIndex(ctx, store, cfg.Database.Index, deleteDocs); err != nil {
					return err
				}
				logger.Info("Index dropped", zap.String("index", cfg.Database.Index), zap.Bool("delete_docs", deleteDocs))
				cmd.Printf("dropped index %s\n", cfg.Database.Index)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&deleteDocs, "delete-docs", false, "also delete the indexed documents")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm --delete-docs")
	return cmd
}
