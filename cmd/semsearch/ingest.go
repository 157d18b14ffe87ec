package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/metrics"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
	openaiT "github.com/sagar8080/semantic-search-system/internal/transport/openai"
	embeddinguc "github.com/sagar8080/semantic-search-system/internal/usecase/embedding"
	"github.com/sagar8080/semantic-search-system/internal/usecase/ingest"
)

type ingestOptions struct {
	batch   int
	workers int
	ensure  bool
}

func newIngestCmd(opts *globalOptions) *cobra.Command {
	in := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest [file.jsonl|-]",
		Short: "Embed and store press releases from a JSONL file",
		Long: "Reads one press release per line. Records without an embedding are embedded with the\n" +
			"configured model before they are written. Reads stdin when the file is - or omitted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, in, args)
		},
	}
	cmd.Flags().IntVar(&in.batch, "batch", ingest.DefaultBatchSize, "texts per embedding request")
	cmd.Flags().IntVar(&in.workers, "workers", ingest.DefaultWorkers, "concurrent batches")
	cmd.Flags().BoolVar(&in.ensure, "ensure-index", true, "create the index first when it is missing")
	return cmd
}

func runIngest(cmd *cobra.Command, opts *globalOptions, iopts *ingestOptions, args []string) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer closeIn()

	docs, bad, err := ingest.ReadJSONL(in)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if iopts.ensure {
		if _, err := searchrepo.EnsureIndex(ctx, store,
			cfg.Database.Index, cfg.Database.KeyPrefix, cfg.Embedding.Dimensions,
			searchrepo.HNSWConfig{M: cfg.Database.HNSWM, EFConstruct: cfg.Database.HNSWEFConstruct},
		); err != nil {
			return err
		}
	}

	metrics.RegisterProviderMetrics()
	// Documents are embedded without the query instruction and bypass the query cache.
	embedder := embeddinguc.NewInstrumentedEmbedder(openaiT.NewEmbedder(&openaiT.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	}), cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	repo := searchrepo.New(store, cfg.Database.Index, cfg.Database.KeyPrefix, logger)
	svc := ingest.New(embedder, repo, ingest.Config{
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  iopts.batch,
		Workers:    iopts.workers,
	}, logger)

	rep, runErr := svc.Run(ctx, docs)
	rep.Failures = append(bad, rep.Failures...)
	printReport(cmd.OutOrStdout(), len(docs)+len(bad), &rep)

	if runErr != nil {
		return runErr
	}
	if len(rep.Failures) > 0 {
		logger.Warn("Some records were not stored", zap.Int("failed", len(rep.Failures)))
		return fmt.Errorf("%d of %d records failed", len(rep.Failures), len(docs)+len(bad))
	}
	return nil
}

func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
