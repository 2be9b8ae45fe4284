package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/loomtk/loom/pkg/errutil"
)

// TaskPool tracks a set of cooperatively cancelled tasks sharing one
// context. The listener drives async ports and async ticking on one; it can
// also be used on its own. The shutdown order is CancelAll, Close, Wait;
// spawning concurrently with Wait is not allowed.
type TaskPool struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	errs   []error
}

// NewTaskPool returns an empty pool.
func NewTaskPool() *TaskPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskPool{ctx: ctx, cancel: cancel}
}

// Spawn runs f as a task named name on its own goroutine. The task should
// return promptly once its context is done. It returns ErrPoolClosed after
// Close.
func (p *TaskPool) Spawn(name string, f func(context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		err := f(p.ctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		logger.Printf("task %s failed: %v", name, err)
		p.mu.Lock()
		p.errs = append(p.errs, fmt.Errorf("task %s: %w", name, err))
		p.mu.Unlock()
	}()
	return nil
}

// CancelAll signals cancellation to every running task.
func (p *TaskPool) CancelAll() { p.cancel() }

// Close rejects further spawns. Running tasks are unaffected.
func (p *TaskPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Wait blocks until every spawned task has returned and reports their
// failures combined into one error. Returning a cancellation error does not
// count as failing.
func (p *TaskPool) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return errutil.Multi(p.errs...)
}
