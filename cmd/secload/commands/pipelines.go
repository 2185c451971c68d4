package commands

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/config"
	"github.com/hippocampus-io/secload/errors"
	"github.com/hippocampus-io/secload/ingest"
	"github.com/hippocampus-io/secload/logger"
	"github.com/hippocampus-io/secload/report"
	"github.com/hippocampus-io/secload/store"
)

const mbToBytes = 1024 * 1024

// loadConfig loads and validates the configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openLake opens the data lake database and applies pending migrations.
func openLake(cfg *config.Config) (*sql.DB, error) {
	db, err := store.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open data lake")
	}
	return db, nil
}

// factsPipeline wires the company facts flow: one file per entity,
// progress counted in entities.
func factsPipeline(cfg *config.Config, db *sql.DB, log *zap.SugaredLogger) *ingest.Pipeline {
	opts := ingest.Options{
		Name:                "companyfacts",
		Unit:                "CIKs",
		Workers:             cfg.Ingest.Workers,
		ChunkSize:           cfg.Ingest.ChunkSize,
		BatchCountLimit:     cfg.Ingest.BatchCountLimit,
		BatchSizeLimitBytes: int64(cfg.Ingest.BatchSizeLimitMB) * mbToBytes,
		GCInterval:          cfg.Ingest.GCInterval,
		CommitRetries:       cfg.Ingest.CommitRetries,
		StrictExistingKeys:  cfg.Ingest.StrictExistingKeys,
	}
	planner := ingest.NewPlanner(cfg.Source.FactsDir, log)
	lake := store.NewDataLake(db, store.FactTable, log)
	return ingest.NewPipeline(opts, planner, ingest.FactTransformer, lake, cfg.Ingest.DeadLetterDir, log)
}

// submissionsPipeline wires the submissions flow: a primary document plus
// chunk files per entity, progress counted in files.
func submissionsPipeline(cfg *config.Config, db *sql.DB, log *zap.SugaredLogger) *ingest.Pipeline {
	opts := ingest.Options{
		Name:                "submissions",
		Unit:                "Files",
		CountFiles:          true,
		Workers:             cfg.Ingest.Workers,
		ChunkSize:           cfg.Ingest.SubmissionChunkSize,
		BatchCountLimit:     cfg.Ingest.SubmissionBatchCountLimit,
		BatchSizeLimitBytes: int64(cfg.Ingest.BatchSizeLimitMB) * mbToBytes,
		GCInterval:          cfg.Ingest.GCInterval,
		CommitRetries:       cfg.Ingest.CommitRetries,
		StrictExistingKeys:  cfg.Ingest.StrictExistingKeys,
	}
	planner := ingest.NewPlanner(cfg.Source.SubmissionsDir, log)
	lake := store.NewDataLake(db, store.SubmissionTable, log)
	return ingest.NewPipeline(opts, planner, ingest.SubmissionTransformer, lake, cfg.Ingest.DeadLetterDir, log)
}

// runAndReport executes one pipeline and, when enabled and the run produced
// samples, renders its performance report.
func runAndReport(ctx context.Context, cfg *config.Config, p *ingest.Pipeline, reportEnabled bool) (*ingest.Result, error) {
	result, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	if reportEnabled && cfg.Report.Enabled {
		if len(result.Samples) == 0 {
			logger.Logger.Infow("Skipping report, no samples collected", "run", result.Name)
		} else if _, err := report.Generate(result, cfg.Report.Dir, logger.Logger); err != nil {
			// Report rendering is advisory; the load itself succeeded
			logger.Logger.Warnw("Failed to generate performance report",
				"run", result.Name,
				"error", err,
			)
		}
	}

	return result, nil
}
