// Package ingest implements the bulk ingestion pipeline: task planning,
// parallel document transformation, adaptive batch accumulation, and the
// orchestration loop that commits batches to the data lake while sampling
// throughput and resource metrics.
package ingest

import (
	"time"
)

// SourceTask identifies one entity's document set on disk. Immutable once
// planned; consumed exactly once by a Transformer invocation.
type SourceTask struct {
	Key         string   // ten-digit CIK derived from the filename
	PrimaryFile string   // path to the base document
	ChunkFiles  []string // supplementary chunk paths, lexicographically sorted
}

// FileCount returns the number of source files this task consumes.
func (t SourceTask) FileCount() int {
	return 1 + len(t.ChunkFiles)
}

// Record is one normalized document ready for the batch accumulator.
type Record struct {
	Key        string    `json:"key"`
	Payload    string    `json:"payload"`
	ProducedAt time.Time `json:"produced_at"`
}

// SkipReason classifies why a task produced no record.
type SkipReason string

const (
	// SkipMalformedPrimary: the primary document is unreadable, unparsable,
	// or missing required top-level fields.
	SkipMalformedPrimary SkipReason = "malformed_primary"
	// SkipChunkError: a supplementary chunk failed to read or parse; the
	// whole task is dropped.
	SkipChunkError SkipReason = "chunk_error"
)

// Outcome is the result of transforming one task: either a Record or a
// typed skip. There are no partial states.
type Outcome struct {
	Key    string
	Record *Record    // nil when the task was skipped
	Reason SkipReason // set when Record is nil
	Err    error      // underlying cause, for logging only
	Units  int        // progress units this task consumed (see Transformer)
}

// Skipped reports whether the task produced no record.
func (o Outcome) Skipped() bool {
	return o.Record == nil
}

// Transformer turns one SourceTask into exactly one Outcome. Implementations
// must be pure: no shared mutable state, no store access, file reads only.
//
// Units accounting is the transformer's choice: the fact transformer counts
// one unit per successful entity, while the submission transformer counts
// every file it consumed, even on a failed task, so file-based throughput
// stays honest.
type Transformer func(task SourceTask) Outcome
