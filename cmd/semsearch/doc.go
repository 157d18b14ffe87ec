package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/config"
	dbRedis "github.com/sagar8080/semantic-search-system/internal/db/redis"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
)

type jsonAnnotation struct {
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
}

// jsonDocument mirrors the ingest record format; the vector is reduced to its size.
type jsonDocument struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Summary     string           `json:"summary,omitempty"`
	Content     string           `json:"content,omitempty"`
	PublishedAt string           `json:"published_at,omitempty"`
	URL         string           `json:"url,omitempty"`
	Entities    []jsonAnnotation `json:"entities,omitempty"`
	Topics      []jsonAnnotation `json:"topics,omitempty"`
	Dimensions  int              `json:"embedding_dimensions"`
}

func toJSONDocument(d *document.Document) jsonDocument {
	conv := func(in []document.Annotation) []jsonAnnotation {
		out := make([]jsonAnnotation, len(in))
		for i, a := range in {
			out[i] = jsonAnnotation{Text: a.Text, Label: a.Label}
		}
		return out
	}
	return jsonDocument{
		ID:          d.ID,
		Title:       d.Title,
		Summary:     d.Summary,
		Content:     d.Content,
		PublishedAt: d.PublishedDate(),
		URL:         d.URL,
		Entities:    conv(d.Entities),
		Topics:      conv(d.Topics),
		Dimensions:  len(d.Embedding),
	}
}

func newDocCmd(opts *globalOptions) *cobra.Command {
	doc := &cobra.Command{
		Use:   "doc",
		Short: "Read or delete stored press releases",
	}
	doc.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Print a stored press release as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) error {
					repo := searchrepo.New(store, cfg.Database.Index, cfg.Database.KeyPrefix, logger)
					d, err := repo.Get(ctx, args[0])
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(toJSONDocument(&d))
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a stored press release",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) error {
					repo := searchrepo.New(store, cfg.Database.Index, cfg.Database.KeyPrefix, logger)
					if err := repo.Delete(ctx, args[0]); err != nil {
						return err
					}
					cmd.Printf("deleted %s\n", args[0])
					return nil
				})
			},
		},
	)
	return doc
}
