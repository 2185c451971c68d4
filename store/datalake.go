package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/errors"
)

// Table names for the two document lakes
const (
	FactTable       = "fact_lake"
	SubmissionTable = "submission_lake"
)

// Row is one keyed document ready to be written to a lake table.
type Row struct {
	Key     string
	Payload string
}

// DataLake is the write path for one lake table. All batch commits for a
// pipeline run go through a single DataLake instance on the control
// goroutine; it is not safe for concurrent use.
type DataLake struct {
	db     *sql.DB
	table  string
	logger *zap.SugaredLogger
}

// NewDataLake creates a DataLake bound to one of the lake tables.
// The table name must be one of the constants above; it is interpolated
// into SQL directly and never comes from user input.
func NewDataLake(db *sql.DB, table string, logger *zap.SugaredLogger) *DataLake {
	return &DataLake{
		db:     db,
		table:  table,
		logger: logger,
	}
}

// Table returns the lake table this writer is bound to.
func (l *DataLake) Table() string {
	return l.table
}

// ExistingKeys returns the set of keys already present in the lake table.
// Used once per run to compute the skip set for idempotent reloading.
func (l *DataLake) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf("SELECT cik FROM %s", l.table))
	if err != nil {
		return nil, errors.Wrapf(err, "query existing keys from %s", l.table)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scan existing key")
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate existing keys from %s", l.table)
	}

	return keys, nil
}

// UpsertBatch writes one batch window in a single transaction: each row is
// inserted, or overwrites the existing row for its key. The whole batch
// commits or none of it does. Returns the wall-clock write duration for
// metrics sampling.
func (l *DataLake) UpsertBatch(ctx context.Context, batch []Row) (time.Duration, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "begin batch transaction on %s", l.table)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (cik, payload, last_updated)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cik) DO UPDATE SET
			payload = excluded.payload,
			last_updated = excluded.last_updated`, l.table))
	if err != nil {
		tx.Rollback()
		return 0, errors.Wrapf(err, "prepare upsert on %s", l.table)
	}

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row.Key, row.Payload); err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, errors.Wrapf(err, "upsert key %s into %s", row.Key, l.table)
		}
	}
	stmt.Close()

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return 0, errors.Wrapf(err, "commit batch of %d into %s", len(batch), l.table)
	}

	duration := time.Since(start)

	if l.logger != nil {
		l.logger.Debugw("Batch committed",
			"table", l.table,
			"rows", len(batch),
			"duration", duration,
		)
	}

	return duration, nil
}

// Stats summarizes one lake table for the db stats command.
type Stats struct {
	Table       string
	Rows        int
	FirstUpdate sql.NullString
	LastUpdate  sql.NullString
}

// TableStats returns row count and update-timestamp bounds for the table.
func (l *DataLake) TableStats(ctx context.Context) (Stats, error) {
	stats := Stats{Table: l.table}

	query := fmt.Sprintf(
		"SELECT COUNT(*), MIN(last_updated), MAX(last_updated) FROM %s", l.table)
	err := l.db.QueryRowContext(ctx, query).Scan(&stats.Rows, &stats.FirstUpdate, &stats.LastUpdate)
	if err != nil {
		return stats, errors.Wrapf(err, "query stats for %s", l.table)
	}

	return stats, nil
}
