package ingest

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/errors"
)

// keyPattern matches the filename convention: CIK followed by a ten-digit
// zero-padded entity number. Chunk files carry the chunkMarker after the key.
var keyPattern = regexp.MustCompile(`^CIK(\d{10})`)

const chunkMarker = "-submissions-"

// Plan is the ordered task list for one pipeline run, plus the counts the
// orchestrator needs for progress accounting.
type Plan struct {
	Tasks         []SourceTask
	TotalFiles    int // files across all planned tasks
	Incomplete    int // groups dropped: chunks present but no primary
	AlreadyLoaded int // keys dropped: already present in the target table
}

// Planner scans a source directory, groups files by entity key, and
// reconciles the groups against keys already present in the data lake.
type Planner struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewPlanner creates a planner for one source directory.
func NewPlanner(dir string, logger *zap.SugaredLogger) *Planner {
	return &Planner{dir: dir, logger: logger}
}

// Plan enumerates the source directory and produces the ordered task list.
// Keys in existing are dropped (idempotent re-run skips completed work).
// Groups with chunks but no primary are dropped and counted as incomplete.
func (p *Planner) Plan(existing map[string]struct{}) (*Plan, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "scan source directory %s", p.dir)
	}

	type group struct {
		primary string
		chunks  []string
	}
	groups := make(map[string]*group)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		m := keyPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		key := m[1]

		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
		}
		if strings.Contains(name, chunkMarker) {
			g.chunks = append(g.chunks, filepath.Join(p.dir, name))
		} else {
			g.primary = filepath.Join(p.dir, name)
		}
	}

	plan := &Plan{}
	for key, g := range groups {
		if _, done := existing[key]; done {
			plan.AlreadyLoaded++
			continue
		}
		if g.primary == "" {
			// Incomplete group: policy is to drop silently, counted for
			// observability
			plan.Incomplete++
			continue
		}

		// Chunk merge order is fixed lexicographically, independent of
		// filesystem enumeration order
		sort.Strings(g.chunks)

		task := SourceTask{
			Key:         key,
			PrimaryFile: g.primary,
			ChunkFiles:  g.chunks,
		}
		plan.Tasks = append(plan.Tasks, task)
		plan.TotalFiles += task.FileCount()
	}

	// Ordered task list: keys are unique, so sorting by key is total
	sort.Slice(plan.Tasks, func(i, j int) bool {
		return plan.Tasks[i].Key < plan.Tasks[j].Key
	})

	if p.logger != nil {
		p.logger.Infow("Planning complete",
			"dir", p.dir,
			"tasks", len(plan.Tasks),
			"files", plan.TotalFiles,
			"already_loaded", plan.AlreadyLoaded,
			"incomplete", plan.Incomplete,
		)
	}

	return plan, nil
}
