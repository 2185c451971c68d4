package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestPlanGroupsByKey(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "CIK0000320193.json", "{}")
	writeSourceFile(t, dir, "CIK0000320193-submissions-001.json", "{}")
	writeSourceFile(t, dir, "CIK0000320193-submissions-002.json", "{}")
	writeSourceFile(t, dir, "CIK0000789019.json", "{}")

	plan, err := NewPlanner(dir, testLogger()).Plan(nil)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, 4, plan.TotalFiles)

	// Ordered task list
	assert.Equal(t, "0000320193", plan.Tasks[0].Key)
	assert.Equal(t, "0000789019", plan.Tasks[1].Key)

	apple := plan.Tasks[0]
	assert.Equal(t, filepath.Join(dir, "CIK0000320193.json"), apple.PrimaryFile)
	require.Len(t, apple.ChunkFiles, 2)
	assert.Equal(t, 3, apple.FileCount())
}

func TestPlanChunkOrderIsLexicographic(t *testing.T) {
	dir := t.TempDir()
	// Creation order deliberately scrambled
	for _, name := range []string{
		"CIK0000001750-submissions-003.json",
		"CIK0000001750-submissions-001.json",
		"CIK0000001750.json",
		"CIK0000001750-submissions-002.json",
	} {
		writeSourceFile(t, dir, name, "{}")
	}

	plan, err := NewPlanner(dir, testLogger()).Plan(nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)

	chunks := plan.Tasks[0].ChunkFiles
	require.Len(t, chunks, 3)
	for i, want := range []string{"001", "002", "003"} {
		assert.Contains(t, chunks[i], "submissions-"+want)
	}
}

func TestPlanDropsExistingKeys(t *testing.T) {
	dir := t.TempDir()
	const n = 5
	for i := 0; i < n; i++ {
		writeSourceFile(t, dir, fmt.Sprintf("CIK%010d.json", i+1), "{}")
	}

	existing := map[string]struct{}{
		fmt.Sprintf("%010d", 1): {},
		fmt.Sprintf("%010d", 3): {},
	}

	plan, err := NewPlanner(dir, testLogger()).Plan(existing)
	require.NoError(t, err)

	// N keys in source, M already present: exactly N-M tasks planned
	assert.Len(t, plan.Tasks, n-len(existing))
	assert.Equal(t, len(existing), plan.AlreadyLoaded)
	for _, task := range plan.Tasks {
		_, present := existing[task.Key]
		assert.False(t, present, "already-loaded key %s must not be re-planned", task.Key)
	}
}

func TestPlanDropsIncompleteGroups(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "CIK0000000001-submissions-001.json", "{}") // no primary
	writeSourceFile(t, dir, "CIK0000000002.json", "{}")

	plan, err := NewPlanner(dir, testLogger()).Plan(nil)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "0000000002", plan.Tasks[0].Key)
	assert.Equal(t, 1, plan.Incomplete)
}

func TestPlanIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "CIK0000000001.json", "{}")
	writeSourceFile(t, dir, "readme.txt", "not json")
	writeSourceFile(t, dir, "notes.json", "no key prefix")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "CIK0000000009.json"), 0o755)) // directory, not a file

	plan, err := NewPlanner(dir, testLogger()).Plan(nil)
	require.NoError(t, err)
	assert.Len(t, plan.Tasks, 1)
}

func TestPlanMissingDirectory(t *testing.T) {
	_, err := NewPlanner(filepath.Join(t.TempDir(), "absent"), testLogger()).Plan(nil)
	assert.Error(t, err)
}
