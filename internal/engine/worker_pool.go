package engine

import (
	"context"
	"sync"
)

// pool is a fixed-size goroutine pool with a bounded input queue.
// Results flow back through channels carried inside the payloads, so the
// pool itself only knows how to run work.
type pool[T any] struct {
	ctx     context.Context
	queue   chan T
	process func(ctx context.Context, t T)
	wg      sync.WaitGroup
}

// newPool creates and starts a pool with n goroutines and queue capacity depth.
func newPool[T any](ctx context.Context, n, depth int, fn func(context.Context, T)) *pool[T] {
	p := &pool[T]{
		ctx:     ctx,
		queue:   make(chan T, depth),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *pool[T]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, t)
		case <-ctx.Done():
			return
		}
	}
}

// TrySubmit enqueues without blocking; returns false if the queue is full.
func (p *pool[T]) TrySubmit(t T) bool {
	select {
	case p.queue <- t:
		return true
	default:
		return false
	}
}

// SubmitWait enqueues, blocking while the queue is saturated. Returns
// false if the caller's ctx or the pool's own ctx ends first, so a
// sender can never stay blocked after the workers are gone.
func (p *pool[T]) SubmitWait(ctx context.Context, t T) bool {
	select {
	case p.queue <- t:
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *pool[T]) Drain() {
	close(p.queue)
	p.wg.Wait()
}

// QueueLen returns how many jobs are currently queued.
func (p *pool[T]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *pool[T]) QueueCap() int {
	return cap(p.queue)
}
