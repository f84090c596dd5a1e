package workerpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_ExecutesTasks(t *testing.T) {
	pool := NewWorkerPool(&Config{Name: "test", MaxWorkers: 2, QueueSize: 8})
	defer pool.Stop(time.Second)

	var mu sync.Mutex
	executed := make(map[string]bool)
	var wg sync.WaitGroup

	for _, id := range []string{"a", "b", "c"} {
		id := id
		wg.Add(1)
		err := pool.SubmitWithContext(context.Background(), Task{
			ID: id,
			Fn: func(ctx context.Context) error {
				defer wg.Done()
				mu.Lock()
				executed[id] = true
				mu.Unlock()
				return nil
			},
		})
		require.NoError(t, err)
	}

	wg.Wait()
	assert.Len(t, executed, 3)
	assert.Eventually(t, func() bool {
		return pool.CompletedTasks() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_CountsFailures(t *testing.T) {
	pool := NewWorkerPool(&Config{Name: "test", MaxWorkers: 1, QueueSize: 4})
	defer pool.Stop(time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	err := pool.SubmitWithContext(context.Background(), Task{
		ID: "failing",
		Fn: func(ctx context.Context) error {
			defer wg.Done()
			return errors.New("task error")
		},
	})
	require.NoError(t, err)

	wg.Wait()
	assert.Eventually(t, func() bool {
		return pool.FailedTasks() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_RecoversFromPanic(t *testing.T) {
	pool := NewWorkerPool(&Config{Name: "test", MaxWorkers: 1, QueueSize: 4})
	defer pool.Stop(time.Second)

	err := pool.SubmitWithContext(context.Background(), Task{
		ID: "panicking",
		Fn: func(ctx context.Context) error {
			panic("boom")
		},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return pool.FailedTasks() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(&Config{Name: "test", MaxWorkers: 1, QueueSize: 1})
	require.NoError(t, pool.Stop(time.Second))

	err := pool.SubmitWithContext(context.Background(), Task{
		ID: "late",
		Fn: func(ctx context.Context) error { return nil },
	})

	assert.Error(t, err)
}

func TestWorkerPool_SubmitCanceledContext(t *testing.T) {
	pool := NewWorkerPool(&Config{Name: "test", MaxWorkers: 1, QueueSize: 1})
	defer pool.Stop(time.Second)

	// Fill the queue with a blocking task plus a queued one
	block := make(chan struct{})
	defer close(block)
	require.NoError(t, pool.SubmitWithContext(context.Background(), Task{
		ID: "blocking",
		Fn: func(ctx context.Context) error {
			<-block
			return nil
		},
	}))
	require.NoError(t, pool.SubmitWithContext(context.Background(), Task{
		ID: "queued",
		Fn: func(ctx context.Context) error { return nil },
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.SubmitWithContext(ctx, Task{
		ID: "rejected",
		Fn: func(ctx context.Context) error { return nil },
	})

	assert.ErrorIs(t, err, context.Canceled)
}
