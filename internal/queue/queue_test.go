package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRunsAllTasks(t *testing.T) {
	const tasks = 20

	q := New[int](context.Background(), 4, tasks)
	for i := 0; i < tasks; i++ {
		n := i
		q.Go(func(ctx context.Context) (int, error) {
			return n, nil
		})
	}
	q.Seal()

	seen := make(map[int]bool)
	for res := range q.Results() {
		require.NoError(t, res.Err)
		seen[res.Value] = true
	}
	require.Len(t, seen, tasks)
}

func TestQueueConcurrencyHardCap(t *testing.T) {
	const tasks = 24
	const limit = 3

	var inFlight, maxInFlight atomic.Int64
	q := New[struct{}](context.Background(), limit, tasks)
	for i := 0; i < tasks; i++ {
		q.Go(func(ctx context.Context) (struct{}, error) {
			cur := inFlight.Add(1)
			for {
				old := maxInFlight.Load()
				if cur <= old || maxInFlight.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		})
	}
	q.Seal()

	count := 0
	for res := range q.Results() {
		require.NoError(t, res.Err)
		count++
	}
	require.Equal(t, tasks, count)
	require.LessOrEqual(t, maxInFlight.Load(), int64(limit))
}

func TestQueueDeliversFailures(t *testing.T) {
	boom := errors.New("boom")

	q := New[int](context.Background(), 2, 2)
	q.Go(func(ctx context.Context) (int, error) { return 1, nil })
	q.Go(func(ctx context.Context) (int, error) { return 0, boom })
	q.Seal()

	var failures, successes int
	for res := range q.Results() {
		if res.Err != nil {
			require.ErrorIs(t, res.Err, boom)
			failures++
		} else {
			successes++
		}
	}
	require.Equal(t, 1, failures)
	require.Equal(t, 1, successes)
}

func TestQueueStopHaltsDispatch(t *testing.T) {
	const tasks = 10

	var started atomic.Int64
	q := New[int](context.Background(), 1, tasks)
	for i := 0; i < tasks; i++ {
		q.Go(func(ctx context.Context) (int, error) {
			started.Add(1)
			<-ctx.Done()
			return 0, ctx.Err()
		})
	}
	q.Seal()

	require.Eventually(t, func() bool { return started.Load() >= 1 }, time.Second, time.Millisecond)
	q.Stop()

	// Results closes once the queue has torn down.
	for range q.Results() {
	}

	// The in-flight task may have started plus at most one raced pick;
	// the remaining backlog is dropped.
	require.LessOrEqual(t, started.Load(), int64(2))
}

func TestQueueStopCancelsInFlightWork(t *testing.T) {
	q := New[int](context.Background(), 1, 1)
	canceled := make(chan struct{})
	q.Go(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(canceled)
		return 0, ctx.Err()
	})
	q.Seal()

	q.Stop()
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight task did not observe cancellation")
	}
}
