package ingest

import (
	"context"
	"runtime"
	"sync"
)

// maxWorkers caps the transform pool width regardless of available
// parallelism; beyond this the pipeline is I/O and commit bound.
const maxWorkers = 32

// DefaultWorkers returns the transform pool width used when none is
// configured: a small multiple of available parallelism, capped.
func DefaultWorkers() int {
	w := runtime.NumCPU() + 4
	if w > maxWorkers {
		w = maxWorkers
	}
	return w
}

// runPool fans tasks out to width transform workers and streams outcomes
// back in completion order. Workers share no mutable state: each receives an
// immutable task and sends back an immutable outcome. The returned channel
// is closed once every task has been consumed or the context is cancelled.
func runPool(ctx context.Context, tasks []SourceTask, width int, transform Transformer) <-chan Outcome {
	if width < 1 {
		width = 1
	}
	if width > len(tasks) && len(tasks) > 0 {
		width = len(tasks)
	}

	taskCh := make(chan SourceTask)
	outcomes := make(chan Outcome, width)

	var wg sync.WaitGroup
	for i := 0; i < width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				select {
				case outcomes <- transform(task):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}
