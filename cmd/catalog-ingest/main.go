// Command catalog-ingest merges gzip-compressed NDJSON product feeds from
// several suppliers into the catalog.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/arkarz/perfumeria/internal/domain/product"
	"github.com/arkarz/perfumeria/internal/storage/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		databaseURL string
		dryRun      bool
		capacity    uint
		fpr         float64
	)

	cmd := &cobra.Command{
		Use:   "catalog-ingest [flags] FEED...",
		Short: "Merge supplier product feeds into the catalog",
		Long: `Each FEED is a gzip-compressed file with one JSON product per line.
Products listed by more than one feed are merged before writing: stock is
summed, the lowest price wins and descriptive fields come from the first
feed that has them.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, feeds []string) error {
			ctx := cmd.Context()
			in := &ingester{
				feeds:    feeds,
				capacity: capacity,
				fpr:      fpr,
			}

			if dryRun {
				slog.Info("dry run: nothing will be written")
			} else {
				if databaseURL == "" {
					databaseURL = os.Getenv("DATABASE_URL")
				}
				if databaseURL == "" {
					return errors.New("database URL is required: set --database-url or DATABASE_URL")
				}

				pool, err := postgres.NewPool(ctx, databaseURL)
				if err != nil {
					return errors.Wrap(err, "connect to database")
				}
				defer pool.Close()

				in.out = product.NewCatalog(postgres.NewProductRepository(pool))
			}

			sum, err := in.run(ctx)
			if err != nil {
				return err
			}
			slog.Info("catalog ingest completed",
				slog.Int64("written", sum.written),
				slog.Int64("merged", sum.merged),
				slog.Int64("skipped", sum.skipped),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flags.BoolVar(&dryRun, "dry-run", false, "parse and merge feeds without writing")
	flags.UintVar(&capacity, "bloom-capacity", 1_000_000, "expected product ids per feed")
	flags.Float64Var(&fpr, "bloom-fpr", 0.001, "bloom filter false positive rate")

	return cmd
}
