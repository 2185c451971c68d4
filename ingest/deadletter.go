package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/errors"
)

// DeadLetter persists batches whose commit failed after retries, so no
// record is silently dropped. One JSON object per line; re-running the
// pipeline after fixing the store picks the entities up again anyway, the
// file is for auditing what a given run could not persist.
type DeadLetter struct {
	dir    string
	runID  string
	logger *zap.SugaredLogger
}

// NewDeadLetter creates a dead-letter sink for one pipeline run.
func NewDeadLetter(dir, runID string, logger *zap.SugaredLogger) *DeadLetter {
	return &DeadLetter{dir: dir, runID: runID, logger: logger}
}

// Persist appends the batch to this run's dead-letter file for the given
// table and returns the file path.
func (d *DeadLetter) Persist(table string, records []Record) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create dead-letter directory %s", d.dir)
	}

	path := filepath.Join(d.dir, table+"_"+d.runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "open dead-letter file %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return path, errors.Wrapf(err, "write dead-letter record %s", record.Key)
		}
	}

	if d.logger != nil {
		d.logger.Warnw("Batch dead-lettered",
			"table", table,
			"records", len(records),
			"path", path,
		)
	}

	return path, nil
}
