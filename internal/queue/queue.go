// Package queue provides a bounded-concurrency work queue. A queue is
// constructed per operation, used, and discarded; there is no shared
// global state, which keeps concurrent runs isolated and testable.
package queue

import (
	"context"
	"sync"
)

// Task produces one result. The context it receives is canceled when the
// queue is stopped, so blocking work (network I/O) aborts promptly.
type Task[R any] func(ctx context.Context) (R, error)

// Result is the outcome of one task.
type Result[R any] struct {
	Value R
	Err   error
}

// Queue runs submitted tasks on a fixed set of workers. The concurrency
// bound is a hard cap: exactly limit workers exist, so it is never
// exceeded, even transiently. Dispatch is FIFO; completion order is not
// guaranteed.
type Queue[R any] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   chan Task[R]
	results chan Result[R]
	wg      sync.WaitGroup
}

// New creates a queue running at most limit tasks concurrently, with
// room for backlog pending tasks. Go blocks once the backlog is full.
func New[R any](ctx context.Context, limit, backlog int) *Queue[R] {
	if limit < 1 {
		limit = 1
	}
	if backlog < 0 {
		backlog = 0
	}

	qctx, cancel := context.WithCancel(ctx)
	q := &Queue[R]{
		ctx:     qctx,
		cancel:  cancel,
		tasks:   make(chan Task[R], backlog),
		results: make(chan Result[R], backlog),
	}

	for i := 0; i < limit; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	go func() {
		q.wg.Wait()
		close(q.results)
	}()

	return q
}

func (q *Queue[R]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			// A stop may race with a pending task; never start new work
			// after teardown.
			if q.ctx.Err() != nil {
				return
			}
			value, err := task(q.ctx)
			select {
			case q.results <- Result[R]{Value: value, Err: err}:
			case <-q.ctx.Done():
				return
			}
		}
	}
}

// Go enqueues a task. It must not be called after Seal.
func (q *Queue[R]) Go(task Task[R]) {
	q.tasks <- task
}

// Seal marks the task set complete. Results drains (the channel closes)
// once every submitted task has finished.
func (q *Queue[R]) Seal() {
	close(q.tasks)
}

// Results delivers task outcomes as they complete. The channel closes
// when the queue has drained or been stopped.
func (q *Queue[R]) Results() <-chan Result[R] {
	return q.results
}

// Stop tears the queue down: pending tasks are dropped, in-flight tasks
// see a canceled context, and no further dispatch occurs. Safe to call
// more than once.
func (q *Queue[R]) Stop() {
	q.cancel()
}
