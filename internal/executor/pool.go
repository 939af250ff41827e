package executor

import (
	"context"
	"fmt"
)

// workerPool bounds how many blocking callables run concurrently so a
// batch of slow synchronous work cannot starve other sessions. Slots
// are acquired with ctx so waiters cancel cleanly; once a callable is
// running it is always awaited to completion, never abandoned.
type workerPool struct {
	sem chan struct{}
}

func newWorkerPool(n int) *workerPool {
	return &workerPool{sem: make(chan struct{}, n)}
}

func (p *workerPool) Run(ctx context.Context, fn func() (any, error)) (out any, err error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for worker slot: %w", ctx.Err())
	}
	defer func() { <-p.sem }()
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
