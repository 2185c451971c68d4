package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Source defaults: resolved relative to the working directory
	v.SetDefault("source.facts_dir", "companyfacts")
	v.SetDefault("source.submissions_dir", "submissions")

	// Database defaults
	v.SetDefault("database.path", "hippocampus.db")

	// Ingest defaults. Batch limits mirror the production loader tuning:
	// fact payloads are large so the byte limit usually triggers first.
	v.SetDefault("ingest.workers", 0) // 0 = min(32, NumCPU+4)
	v.SetDefault("ingest.chunk_size", 20000)
	v.SetDefault("ingest.batch_count_limit", 1000)
	v.SetDefault("ingest.batch_size_limit_mb", 1500)
	v.SetDefault("ingest.submission_chunk_size", 15000)
	v.SetDefault("ingest.submission_batch_count_limit", 20000)
	v.SetDefault("ingest.gc_interval", 5)
	v.SetDefault("ingest.commit_retries", 3)
	v.SetDefault("ingest.dead_letter_dir", "deadletter")
	v.SetDefault("ingest.strict_existing_keys", true)

	// Report defaults
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", ".")
}
