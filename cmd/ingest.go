// Package cmd defines and implements the CLI commands for the osintvm executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/clock/system"
	"github.com/Kalinka5/osint-vm/internal/dispatcher"
	"github.com/Kalinka5/osint-vm/internal/hash/sha256"
	"github.com/Kalinka5/osint-vm/internal/id/uuid"
	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/logging"
	"github.com/Kalinka5/osint-vm/internal/worker"
)

// newIngestCmd creates and configures the 'ingest' subcommand.
// It pulls every company still missing an image, runs each one through the
// favicon pipeline on a bounded worker pool, and reports a summary.
func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, deduplicate, and record company favicons",
		Long: `Lists all companies that have a website but no recorded image, then
locates and fetches each favicon, normalizes it to PNG, deduplicates by
content digest, uploads new blobs, and records the image reference on the
company row.`,

		RunE: runIngestCommand,
	}
	return cmd
}

func runIngestCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	cfg, err := ingest.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load ingest config: %w", err)
	}

	runID, err := uuid.NewUUIDGenerator().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	// SIGINT/SIGTERM stop dispatching new companies; in-flight ones finish.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores := appInstance.GetStores()
	companies, err := stores.ListCompaniesNeedingImage(ctx)
	if err != nil {
		return fmt.Errorf("list companies needing image: %w", err)
	}
	if len(companies) == 0 {
		logger.Info("No companies need an image. Nothing to do.")
		return nil
	}
	logger.Info("Starting favicon ingestion",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", cfg.Concurrency),
	)

	w := worker.New(
		ingest.NewFaviconLocator(cfg, logger),
		ingest.NewFaviconFetcher(cfg, logger),
		sha256.New(),
		stores,
		stores,
		appInstance.GetBlobStore(),
		appInstance.GetPublisher(),
		ingest.NewExponentialRetryPolicy(),
		system.New(),
		worker.Config{BlobPrefix: cfg.BlobPrefix, Topic: cfg.Topic},
		logger,
	)

	outcomes, summary := dispatcher.New(w, cfg.Concurrency, logger).Run(ctx, companies)

	for _, outcome := range outcomes {
		if outcome.Done() {
			continue
		}
		logger.Warn("Company failed ingestion",
			zap.Int64("company_id", outcome.CompanyID),
			zap.String("website", outcome.Website),
			zap.String("reason", string(outcome.Reason)),
		)
	}
	logger.Info("Favicon ingestion finished",
		zap.Int("total", summary.Total),
		zap.Int("done", summary.Done),
		zap.Int("reused", summary.Reused),
		zap.Any("failed", summary.Failed),
	)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.L.Info("Ingest command finished.")
	return nil
}
