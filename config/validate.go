package config

import "github.com/hippocampus-io/secload/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	// Workers: 0 = derive from available parallelism, negative = invalid
	if c.Ingest.Workers < 0 {
		return errors.Newf("ingest.workers must be >= 0, got %d", c.Ingest.Workers)
	}
	if c.Ingest.ChunkSize <= 0 {
		return errors.Newf("ingest.chunk_size must be > 0, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.BatchCountLimit <= 0 {
		return errors.Newf("ingest.batch_count_limit must be > 0, got %d", c.Ingest.BatchCountLimit)
	}
	if c.Ingest.BatchSizeLimitMB <= 0 {
		return errors.Newf("ingest.batch_size_limit_mb must be > 0, got %d", c.Ingest.BatchSizeLimitMB)
	}
	if c.Ingest.SubmissionChunkSize <= 0 {
		return errors.Newf("ingest.submission_chunk_size must be > 0, got %d", c.Ingest.SubmissionChunkSize)
	}
	if c.Ingest.SubmissionBatchCountLimit <= 0 {
		return errors.Newf("ingest.submission_batch_count_limit must be > 0, got %d", c.Ingest.SubmissionBatchCountLimit)
	}
	if c.Ingest.GCInterval < 0 {
		return errors.Newf("ingest.gc_interval must be >= 0, got %d", c.Ingest.GCInterval)
	}

	// Retries: 0 = single attempt, no retry ("zero means zero")
	if c.Ingest.CommitRetries < 0 {
		return errors.Newf("ingest.commit_retries must be >= 0, got %d", c.Ingest.CommitRetries)
	}

	return nil
}
