package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPoolProcessesAllTasks(t *testing.T) {
	tasks := make([]SourceTask, 50)
	for i := range tasks {
		tasks[i] = SourceTask{Key: fmt.Sprintf("%010d", i)}
	}

	transform := func(task SourceTask) Outcome {
		return Outcome{
			Key:    task.Key,
			Record: &Record{Key: task.Key, Payload: "{}"},
			Units:  1,
		}
	}

	seen := make(map[string]bool)
	for outcome := range runPool(context.Background(), tasks, 8, transform) {
		assert.False(t, seen[outcome.Key], "task %s delivered twice", outcome.Key)
		seen[outcome.Key] = true
	}

	assert.Len(t, seen, len(tasks), "every task yields exactly one outcome")
}

func TestRunPoolZeroTasks(t *testing.T) {
	outcomes := runPool(context.Background(), nil, 4, func(SourceTask) Outcome {
		t.Fatal("transform must not be called")
		return Outcome{}
	})

	count := 0
	for range outcomes {
		count++
	}
	assert.Zero(t, count)
}

func TestRunPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	tasks := make([]SourceTask, 1000)
	for i := range tasks {
		tasks[i] = SourceTask{Key: fmt.Sprintf("%010d", i)}
	}

	started := make(chan struct{}, 1)
	transform := func(task SourceTask) Outcome {
		select {
		case started <- struct{}{}:
		default:
		}
		return Outcome{Key: task.Key, Record: &Record{Key: task.Key}, Units: 1}
	}

	outcomes := runPool(ctx, tasks, 2, transform)
	<-started
	cancel()

	// Channel must close; consuming everything must not hang
	done := make(chan struct{})
	go func() {
		for range outcomes {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not shut down after cancellation")
	}
}

func TestDefaultWorkersCapped(t *testing.T) {
	w := DefaultWorkers()
	require.GreaterOrEqual(t, w, 1)
	assert.LessOrEqual(t, w, maxWorkers)
}
