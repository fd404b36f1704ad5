// Package dssparallel provides the generic worker pool used to fan local
// geometric operations (spec section 4.5: Check/Interacting/Pull on
// polygons, edges and texts) out across the "threads" setting of a
// ShapeStore or DeviceExtractor.
package dssparallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers. A value of 1
	// runs everything on the calling goroutine, matching the "threads=1"
	// meaning of single-threaded local operations; NewWorkerPool replaces a
	// value <= 0 with DefaultPoolConfig's worker count.
	MaxWorkers int

	// TaskBufferSize is the buffer size of the internal task channel.
	// Default: MaxWorkers * 2.
	TaskBufferSize int

	// Timeout bounds the whole Execute call. Zero means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns a pool configuration sized to the host.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}
	return PoolConfig{MaxWorkers: workers, TaskBufferSize: workers * 2}
}

// FromThreads builds a PoolConfig from a ShapeStore "threads" setting: values
// <= 0 are treated as 1 (no parallelism), mirroring the store's own
// tl::parallel-or-serial dispatch.
func FromThreads(threads int) PoolConfig {
	if threads < 1 {
		threads = 1
	}
	return PoolConfig{MaxWorkers: threads, TaskBufferSize: threads * 2}
}

// Task is a unit of work with an input and a producer of R.
type Task[T any, R any] interface {
	Execute(ctx context.Context) (R, error)
	Input() T
}

// taskFunc adapts a plain function into a Task.
type taskFunc[T any, R any] struct {
	input T
	fn    func(ctx context.Context, input T) (R, error)
}

func (t *taskFunc[T, R]) Execute(ctx context.Context) (R, error) { return t.fn(ctx, t.input) }
func (t *taskFunc[T, R]) Input() T                               { return t.input }

// TaskResult holds one task's outcome, tagged with its originating input so
// results can be matched back to callers after reordering.
type TaskResult[T any, R any] struct {
	Input  T
	Result R
	Error  error
}

// WorkerPool runs up to MaxWorkers tasks concurrently.
type WorkerPool[T any, R any] struct {
	config PoolConfig
}

// NewWorkerPool creates a pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	if config.TaskBufferSize <= 0 {
		config.TaskBufferSize = config.MaxWorkers * 2
	}
	return &WorkerPool[T, R]{config: config}
}

// Execute runs all tasks, honoring ctx cancellation, and returns results in
// the same order as the input tasks.
func (p *WorkerPool[T, R]) Execute(ctx context.Context, tasks []Task[T, R]) []TaskResult[T, R] {
	if len(tasks) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(tasks))

	if p.config.MaxWorkers <= 1 || len(tasks) == 1 {
		for i, task := range tasks {
			if ctx.Err() != nil {
				break
			}
			r, err := task.Execute(ctx)
			results[i] = TaskResult[T, R]{Input: task.Input(), Result: r, Error: err}
		}
		return results
	}

	taskCh := make(chan int, p.config.TaskBufferSize)
	numWorkers := p.config.MaxWorkers
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-taskCh:
					if !ok {
						return
					}
					task := tasks[idx]
					r, err := task.Execute(ctx)
					results[idx] = TaskResult[T, R]{Input: task.Input(), Result: r, Error: err}
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for i := range tasks {
			select {
			case <-ctx.Done():
				return
			case taskCh <- i:
			}
		}
	}()

	wg.Wait()
	return results
}

// ExecuteFunc is a convenience wrapper that builds tasks from a plain
// function before calling Execute.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	tasks := make([]Task[T, R], len(inputs))
	for i, input := range inputs {
		tasks[i] = &taskFunc[T, R]{input: input, fn: fn}
	}
	return p.Execute(ctx, tasks)
}

// ForEach runs fn over items in parallel, returning the count that completed
// without error and the first error encountered, if any. Used by local
// operations to process candidate clusters under a "threads" budget.
func ForEach[T any](ctx context.Context, items []T, config PoolConfig, fn func(ctx context.Context, item T) error) (processed int, firstErr error) {
	if len(items) == 0 {
		return 0, nil
	}

	pool := NewWorkerPool[T, struct{}](config)
	results := pool.ExecuteFunc(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})

	for _, r := range results {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		processed++
	}
	return processed, firstErr
}

// MapReduce applies mapper to each item in parallel, then folds the mapped
// values with reducer on the calling goroutine.
func MapReduce[T any, M any, R any](ctx context.Context, items []T, config PoolConfig, mapper func(ctx context.Context, item T) M, reducer func(mapped []M) R) R {
	if len(items) == 0 {
		var zero R
		return zero
	}

	pool := NewWorkerPool[T, M](config)
	results := pool.ExecuteFunc(ctx, items, func(ctx context.Context, item T) (M, error) {
		return mapper(ctx, item), nil
	})

	mapped := make([]M, len(results))
	for i, r := range results {
		mapped[i] = r.Result
	}
	return reducer(mapped)
}
