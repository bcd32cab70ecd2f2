package executor

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs blocking store and upstream calls on a bounded set of workers.
// A nil *Pool runs tasks inline on the calling goroutine.
type Pool struct {
	name    string
	size    int64
	sem     *semaphore.Weighted
	running atomic.Int64
	done    atomic.Int64
}

// New creates a pool allowing at most workers concurrent tasks
func New(name string, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	log.Printf("Executor %q started with %d workers", name, workers)
	return &Pool{
		name: name,
		size: int64(workers),
		sem:  semaphore.NewWeighted(int64(workers)),
	}
}

// Stats is a snapshot of pool usage
type Stats struct {
	Workers   int64 `json:"workers"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
}

// Stats returns current pool usage
func (p *Pool) Stats() Stats {
	if p == nil {
		return Stats{}
	}
	return Stats{
		Workers:   p.size,
		Running:   p.running.Load(),
		Completed: p.done.Load(),
	}
}

type result[T any] struct {
	value T
	err   error
}

// Do submits fn to the pool and waits for its result.
// If ctx ends first, Do returns ctx.Err() and the task keeps running to completion.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}

	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("executor %s: %w", p.name, err)
	}

	ch := make(chan result[T], 1)
	p.running.Add(1)
	go func() {
		defer func() {
			p.running.Add(-1)
			p.done.Add(1)
			p.sem.Release(1)
		}()
		defer func() {
			if r := recover(); r != nil {
				ch <- result[T]{err: fmt.Errorf("executor %s: task panicked: %v", p.name, r)}
			}
		}()

		v, err := fn(ctx)
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
