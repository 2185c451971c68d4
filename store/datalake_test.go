package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLake(t *testing.T, table string) *DataLake {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lake.db")
	db, err := OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDataLake(db, table, nil)
}

func TestUpsertBatchInsertsAndUpdates(t *testing.T) {
	lake := openTestLake(t, FactTable)
	ctx := context.Background()

	_, err := lake.UpsertBatch(ctx, []Row{
		{Key: "0000320193", Payload: `{"entityName":"Apple Inc."}`},
		{Key: "0000789019", Payload: `{"entityName":"Microsoft"}`},
	})
	require.NoError(t, err)

	keys, err := lake.ExistingKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "0000320193")

	// Upsert the same key with a new payload: row count stays, payload changes
	_, err = lake.UpsertBatch(ctx, []Row{
		{Key: "0000320193", Payload: `{"entityName":"Apple Inc.","v":2}`},
	})
	require.NoError(t, err)

	stats, err := lake.TableStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)

	var payload string
	err = lake.db.QueryRow("SELECT payload FROM fact_lake WHERE cik = ?", "0000320193").Scan(&payload)
	require.NoError(t, err)
	assert.Contains(t, payload, `"v":2`)
}

func TestUpsertBatchEmptyIsNoop(t *testing.T) {
	lake := openTestLake(t, SubmissionTable)

	duration, err := lake.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, duration)
}

func TestUpsertBatchMeasuresDuration(t *testing.T) {
	lake := openTestLake(t, FactTable)

	duration, err := lake.UpsertBatch(context.Background(), []Row{
		{Key: "0000001750", Payload: `{}`},
	})
	require.NoError(t, err)
	assert.Positive(t, duration)
}

func TestExistingKeysEmptyTable(t *testing.T) {
	lake := openTestLake(t, SubmissionTable)

	keys, err := lake.ExistingKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestExistingKeysMissingTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bare.db")
	db, err := Open(dbPath, nil) // no migrations
	require.NoError(t, err)
	defer db.Close()

	lake := NewDataLake(db, FactTable, nil)
	_, err = lake.ExistingKeys(context.Background())
	assert.Error(t, err)
}

// Commit atomicity: when the commit fails mid-batch, nothing from the batch
// is persisted. Uses sqlmock to force the failure at the commit boundary.
func TestUpsertBatchRollsBackOnCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO fact_lake")
	for i := 0; i < 5; i++ {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	lake := NewDataLake(db, FactTable, nil)

	batch := make([]Row, 5)
	for i := range batch {
		batch[i] = Row{Key: string(rune('a' + i)), Payload: "{}"}
	}

	_, err = lake.UpsertBatch(context.Background(), batch)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchRollsBackOnExecFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO fact_lake")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	lake := NewDataLake(db, FactTable, nil)

	_, err = lake.UpsertBatch(context.Background(), []Row{
		{Key: "ok", Payload: "{}"},
		{Key: "boom", Payload: "{}"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
