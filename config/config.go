// Package config loads and validates the secload configuration.
//
// Configuration is resolved from a TOML file (secload.toml), environment
// variables with the SECLOAD_ prefix, and built-in defaults, in that order
// of precedence.
package config

// Config represents the full secload configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Database DatabaseConfig `mapstructure:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Report   ReportConfig   `mapstructure:"report"`
}

// SourceConfig locates the JSON document directories to load from
type SourceConfig struct {
	FactsDir       string `mapstructure:"facts_dir"`       // directory of CIK##########.json fact files
	SubmissionsDir string `mapstructure:"submissions_dir"` // directory of submission primaries + chunk files
}

// DatabaseConfig configures the SQLite data lake
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// IngestConfig tunes the bulk ingestion pipeline
type IngestConfig struct {
	Workers          int `mapstructure:"workers"`             // parallel transform workers (0 = min(32, NumCPU+4))
	ChunkSize        int `mapstructure:"chunk_size"`          // tasks submitted to the pool per dispatch round
	BatchCountLimit  int `mapstructure:"batch_count_limit"`   // flush when this many records are buffered
	BatchSizeLimitMB int `mapstructure:"batch_size_limit_mb"` // flush when the buffer reaches this many MB
	// Submissions move many small files per task, so their flow carries its
	// own count tuning
	SubmissionChunkSize       int `mapstructure:"submission_chunk_size"`
	SubmissionBatchCountLimit int `mapstructure:"submission_batch_count_limit"`

	GCInterval         int    `mapstructure:"gc_interval"`          // flushes between manual memory reclamation passes
	CommitRetries      int    `mapstructure:"commit_retries"`       // bounded retries for a failed batch commit
	DeadLetterDir      string `mapstructure:"dead_letter_dir"`      // where failed batches are persisted
	StrictExistingKeys bool   `mapstructure:"strict_existing_keys"` // abort the run when the existing-keys query fails
}

// ReportConfig configures the post-run performance report
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}
