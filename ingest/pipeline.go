package ingest

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/errors"
	"github.com/hippocampus-io/secload/store"
)

// ProgressInterval defines how many completed tasks pass between progress
// log lines while a chunk is in flight.
const ProgressInterval = 100

// defaultRetryBackoff is the base delay between commit retries; it doubles
// per attempt.
const defaultRetryBackoff = 2 * time.Second

// Writer is the subset of the data-lake store the pipeline commits through.
// *store.DataLake satisfies it; tests substitute fakes.
type Writer interface {
	Table() string
	ExistingKeys(ctx context.Context) (map[string]struct{}, error)
	UpsertBatch(ctx context.Context, batch []store.Row) (time.Duration, error)
}

// Options tunes one pipeline instantiation. The same pipeline implementation
// serves both the fact and submission flows; they differ only in transform,
// unit accounting, and batch tuning.
type Options struct {
	Name                string        // run name, used in logs and the report filename
	Unit                string        // progress unit label: "CIKs" or "Files"
	CountFiles          bool          // measure progress in files instead of tasks
	Workers             int           // transform pool width (0 = DefaultWorkers)
	ChunkSize           int           // tasks dispatched to the pool per round
	BatchCountLimit     int           // flush threshold: record count
	BatchSizeLimitBytes int64         // flush threshold: cumulative payload bytes
	GCInterval          int           // flushes between manual memory reclamation passes (0 = never)
	CommitRetries       int           // bounded retries after a failed batch commit
	RetryBackoff        time.Duration // base backoff between retries (0 = 2s)
	StrictExistingKeys  bool          // abort the run when the existing-keys query fails
}

// Result aggregates one pipeline run: task accounting plus the metrics time
// series handed to the report renderer.
type Result struct {
	RunID         string
	Name          string
	Unit          string
	TotalTasks    int
	TotalUnits    int
	Completed     int // tasks that produced a committed-or-buffered record
	UnitsDone     int
	Skipped       int
	Incomplete    int
	AlreadyLoaded int
	Flushes       int
	FailedBatches int
	DeadLettered  int // records persisted to the dead-letter file
	Elapsed       time.Duration
	Samples       []Sample
}

// Pipeline drives one bulk load: Planning -> Running -> Draining -> Done.
// The control goroutine owns the accumulator, writer, and sampler; only the
// transform stage runs in parallel.
type Pipeline struct {
	opts       Options
	runID      string
	planner    *Planner
	transform  Transformer
	writer     Writer
	deadLetter *DeadLetter
	logger     *zap.SugaredLogger
}

// NewPipeline wires one pipeline instantiation. deadLetterDir receives
// batches whose commit fails after retries.
func NewPipeline(opts Options, planner *Planner, transform Transformer, writer Writer, deadLetterDir string, logger *zap.SugaredLogger) *Pipeline {
	runID := uuid.NewString()
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &Pipeline{
		opts:       opts,
		runID:      runID,
		planner:    planner,
		transform:  transform,
		writer:     writer,
		deadLetter: NewDeadLetter(deadLetterDir, runID, logger),
		logger:     logger.With("run", opts.Name, "run_id", runID),
	}
}

// runState is the mutable control-goroutine state for one run.
type runState struct {
	acc        *Accumulator
	sampler    *Sampler
	result     *Result
	gcCounter  int
	lastDBWait time.Duration
}

// Run executes the pipeline to completion. Task failures and batch failures
// are isolated and counted; Run returns an error only for planning failures
// (in strict mode) and cancellation.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID: p.runID,
		Name:  p.opts.Name,
		Unit:  p.opts.Unit,
	}

	// Planning
	existing, err := p.writer.ExistingKeys(ctx)
	if err != nil {
		if p.opts.StrictExistingKeys {
			return nil, errors.Wrap(err, "existing-keys query failed (strict mode aborts the run)")
		}
		// Lax mode: proceed as if the store were empty. The upsert write
		// path keeps reprocessing safe, but this can mask connectivity
		// problems, hence the loud warning.
		p.logger.Warnw("Existing-keys query failed, treating store as empty",
			"table", p.writer.Table(),
			"error", err,
		)
		existing = map[string]struct{}{}
	}

	plan, err := p.planner.Plan(existing)
	if err != nil {
		return nil, err
	}

	result.TotalTasks = len(plan.Tasks)
	result.Incomplete = plan.Incomplete
	result.AlreadyLoaded = plan.AlreadyLoaded
	if p.opts.CountFiles {
		result.TotalUnits = plan.TotalFiles
	} else {
		result.TotalUnits = len(plan.Tasks)
	}

	if len(plan.Tasks) == 0 {
		p.logger.Infow("Nothing to do, all source documents already loaded",
			"already_loaded", plan.AlreadyLoaded,
		)
		return result, nil
	}

	p.logger.Infow("Starting parallel processing",
		"tasks", result.TotalTasks,
		"units", result.TotalUnits,
		"unit", p.opts.Unit,
		"workers", p.opts.Workers,
		"chunk_size", p.opts.ChunkSize,
	)

	// Running
	st := &runState{
		acc:     NewAccumulator(p.opts.BatchCountLimit, p.opts.BatchSizeLimitBytes),
		sampler: NewSampler(p.logger),
		result:  result,
	}

	for start := 0; start < len(plan.Tasks); start += p.opts.ChunkSize {
		end := start + p.opts.ChunkSize
		if end > len(plan.Tasks) {
			end = len(plan.Tasks)
		}

		outcomes := runPool(ctx, plan.Tasks[start:end], p.opts.Workers, p.transform)
		for outcome := range outcomes {
			result.UnitsDone += outcome.Units

			if outcome.Skipped() {
				result.Skipped++
				p.logger.Debugw("Task skipped",
					"key", outcome.Key,
					"reason", outcome.Reason,
					"error", outcome.Err,
				)
				continue
			}

			result.Completed++
			if st.acc.Offer(*outcome.Record) {
				if err := p.flush(ctx, st); err != nil {
					return result, err
				}
			}

			if result.Completed%ProgressInterval == 0 {
				p.logProgress(st)
			}
		}

		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "pipeline cancelled")
		}
	}

	// Draining: commit the final partial window
	if st.acc.Len() > 0 {
		p.logger.Infow("Writing final batch", "records", st.acc.Len())
		if err := p.flush(ctx, st); err != nil {
			return result, err
		}
	}

	// Done
	result.Elapsed = st.sampler.Elapsed()
	result.Samples = st.sampler.Samples()

	p.logger.Infow("Run complete",
		"completed", result.Completed,
		"skipped", result.Skipped,
		"units_done", result.UnitsDone,
		"flushes", result.Flushes,
		"failed_batches", result.FailedBatches,
		"dead_lettered", result.DeadLettered,
		"elapsed", result.Elapsed,
	)

	return result, nil
}

// flush drains the current window, commits it with bounded retries, and on
// success records a metrics sample. A commit that still fails after retries
// is dead-lettered; only cancellation propagates as an error.
func (p *Pipeline) flush(ctx context.Context, st *runState) error {
	records := st.acc.Drain()
	if len(records) == 0 {
		return nil
	}

	batch := make([]store.Row, len(records))
	for i, record := range records {
		batch[i] = store.Row{Key: record.Key, Payload: record.Payload}
	}

	duration, err := p.commitWithRetry(ctx, batch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "pipeline cancelled during commit")
		}

		st.result.FailedBatches++
		if _, dlErr := p.deadLetter.Persist(p.writer.Table(), records); dlErr != nil {
			p.logger.Errorw("Failed to persist dead-letter batch",
				"records", len(records),
				"error", dlErr,
				"commit_error", err,
			)
		}
		st.result.DeadLettered += len(records)
		return nil
	}

	st.result.Flushes++
	st.lastDBWait = duration

	st.sampler.Sample(st.result.UnitsDone, st.result.TotalUnits-st.result.UnitsDone, duration)

	// Periodic manual reclamation pass: high-churn parallel dispatch leaves
	// a lot of dead payload buffers behind
	if p.opts.GCInterval > 0 {
		st.gcCounter++
		if st.gcCounter >= p.opts.GCInterval {
			debug.FreeOSMemory()
			st.gcCounter = 0
		}
	}

	p.logProgress(st)
	return nil
}

// commitWithRetry attempts the batch commit up to 1+CommitRetries times with
// doubling backoff between attempts.
func (p *Pipeline) commitWithRetry(ctx context.Context, batch []store.Row) (time.Duration, error) {
	attempts := p.opts.CommitRetries + 1
	backoff := p.opts.RetryBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		duration, err := p.writer.UpsertBatch(ctx, batch)
		if err == nil {
			return duration, nil
		}
		lastErr = err

		p.logger.Warnw("Batch commit failed",
			"attempt", attempt,
			"attempts", attempts,
			"records", len(batch),
			"error", err,
		)

		if attempt < attempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, errors.CombineErrors(ctx.Err(), lastErr)
			}
			backoff *= 2
		}
	}

	return 0, lastErr
}

func (p *Pipeline) logProgress(st *runState) {
	elapsed := st.sampler.Elapsed().Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(st.result.UnitsDone) / elapsed
	}
	p.logger.Infow("Progress",
		"done", st.result.UnitsDone,
		"total", st.result.TotalUnits,
		"unit", p.opts.Unit,
		"success", st.result.Completed,
		"skipped", st.result.Skipped,
		"speed_per_sec", speed,
		"buffer", st.acc.Len(),
	)
}
