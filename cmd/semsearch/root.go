package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/config"
	logpkg "github.com/sagar8080/semantic-search-system/internal/logger"
	"github.com/sagar8080/semantic-search-system/internal/version"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	env      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "semsearch",
		Short:         "Hybrid semantic search over government press releases",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (loads config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(opts), newSearchCmd(opts), newIndexCmd(opts), newIngestCmd(opts), newDocCmd(opts))
	return root
}

// load reads the config and builds the logger for a subcommand.
func (o *globalOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		return config.Config{}, nil, err
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logpkg.NewLogger(o.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
