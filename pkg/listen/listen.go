// Package listen implements the event-acquisition layer: ports wrapping
// heterogeneous event sources, a background worker that polls them on their
// own schedules, a task pool driving asynchronous sources, and the Listener
// handle through which the application receives everything on one queue.
package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/logutil"
)

var logger = logutil.GetLogger("[listen] ")

// Buffer size of the queue between the producers and Poll. The value is
// chosen for no particular reason.
const queueSize = 128

// Default for Spec.PollTimeout.
const defaultPollTimeout = 10 * time.Millisecond

// Sentinel timeouts for Poll.
const (
	// NoWait makes Poll return immediately.
	NoWait time.Duration = 0
	// Forever makes Poll block until an event or error arrives. Any
	// negative timeout does the same.
	Forever time.Duration = -1
)

// Spec specifies a Listener.
type Spec struct {
	// Ports polled by the background worker.
	Ports []*Port
	// AsyncPorts, each driven by its own task on the listener's pool.
	AsyncPorts []*AsyncPort
	// Tick is the interval between synthetic tick events. 0 disables
	// ticking.
	Tick time.Duration
	// AsyncTick emits ticks from a pool task instead of the worker.
	AsyncTick bool
	// PollTimeout is the timeout consumers should use for bounded receives.
	// If 0, it defaults to 10ms.
	PollTimeout time.Duration
}

// Listener is the handle to a running event-acquisition worker. All methods
// are safe for concurrent use.
type Listener struct {
	queue chan queueItem
	// Closed by Stop to unblock producer sends and worker sleeps.
	stop chan struct{}
	// Closed when the worker goroutine exits, for whatever reason.
	done chan struct{}

	// Flags shared with the worker and the pool tasks.
	paused  atomic.Bool
	running atomic.Bool

	stopped     atomic.Bool
	pollTimeout time.Duration
	pool        *TaskPool // nil when there is nothing asynchronous
	wg          sync.WaitGroup
}

// Start validates spec, spawns the worker goroutine and, if spec has async
// ports or an async tick, a task pool with one task each, and returns the
// handle. The ports in spec are copied; the Spec value stays reusable for
// a later restart.
func Start(spec Spec) (*Listener, error) {
	if err := validate(spec); err != nil {
		return nil, err
	}
	l := &Listener{
		queue:       make(chan queueItem, queueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		pollTimeout: spec.PollTimeout,
	}
	if l.pollTimeout == 0 {
		l.pollTimeout = defaultPollTimeout
	}
	l.running.Store(true)

	ports := make([]*Port, len(spec.Ports))
	for i, p := range spec.Ports {
		pp := *p
		ports[i] = &pp
	}
	tick := spec.Tick
	if spec.AsyncTick {
		tick = 0
	}
	w := &worker{
		ports:   ports,
		tick:    tick,
		queue:   l.queue,
		stop:    l.stop,
		done:    l.done,
		paused:  &l.paused,
		running: &l.running,
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		w.run()
	}()

	if len(spec.AsyncPorts) > 0 || (spec.AsyncTick && spec.Tick > 0) {
		l.pool = NewTaskPool()
		for i, p := range spec.AsyncPorts {
			pp := *p
			l.pool.Spawn(fmt.Sprintf("port %d", i), func(ctx context.Context) error {
				return l.runAsyncPort(ctx, &pp)
			})
		}
		if spec.AsyncTick && spec.Tick > 0 {
			interval := spec.Tick
			l.pool.Spawn("tick", func(ctx context.Context) error {
				return l.runAsyncTick(ctx, interval)
			})
		}
	}
	return l, nil
}

func validate(spec Spec) error {
	if spec.Tick < 0 {
		return fmt.Errorf("%w: negative tick interval", ErrCouldNotStart)
	}
	if spec.PollTimeout < 0 {
		return fmt.Errorf("%w: negative poll timeout", ErrCouldNotStart)
	}
	for _, p := range spec.Ports {
		if p == nil || p.poller == nil {
			return fmt.Errorf("%w: port with nil poller", ErrCouldNotStart)
		}
		if p.interval < 0 {
			return fmt.Errorf("%w: negative port interval", ErrCouldNotStart)
		}
		if p.max < 0 {
			return fmt.Errorf("%w: negative port event cap", ErrCouldNotStart)
		}
	}
	for _, p := range spec.AsyncPorts {
		if p == nil || p.poller == nil {
			return fmt.Errorf("%w: async port with nil poller", ErrCouldNotStart)
		}
		if p.interval < 0 {
			return fmt.Errorf("%w: negative async port interval", ErrCouldNotStart)
		}
		if p.max < 0 {
			return fmt.Errorf("%w: negative async port event cap", ErrCouldNotStart)
		}
	}
	return nil
}

// Poll returns the next queued event or error. A positive timeout bounds
// the wait; NoWait returns immediately; Forever (or any negative timeout)
// blocks until something arrives. It returns (nil, nil) when nothing
// arrived in time, a *PollError when a source failed, and ErrListenerDied
// once the worker is gone and the queue has been drained.
func (l *Listener) Poll(timeout time.Duration) (event.Event, error) {
	// Anything already queued is delivered first, even after the worker is
	// gone.
	select {
	case item := <-l.queue:
		return item.ev, item.err
	default:
	}
	if timeout == NoWait {
		select {
		case <-l.done:
			return l.drainOrDied()
		default:
			return nil, nil
		}
	}
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timeoutCh = time.After(timeout)
	}
	select {
	case item := <-l.queue:
		return item.ev, item.err
	case <-l.done:
		return l.drainOrDied()
	case <-timeoutCh:
		return nil, nil
	}
}

// drainOrDied delivers an item pushed before the worker exited, if any is
// left.
func (l *Listener) drainOrDied() (event.Event, error) {
	select {
	case item := <-l.queue:
		return item.ev, item.err
	default:
		return nil, ErrListenerDied
	}
}

// PollTimeout returns the timeout for bounded receives, as configured by
// the spec this listener was started from.
func (l *Listener) PollTimeout() time.Duration { return l.pollTimeout }

// Pause suspends polling and ticking without stopping anything: the worker
// and the pool tasks keep running and stay promptly resumable. Deadlines
// are not advanced while paused, so whatever came due fires after Unpause.
func (l *Listener) Pause() { l.paused.Store(true) }

// Unpause resumes polling and ticking.
func (l *Listener) Unpause() { l.paused.Store(false) }

// Stop ends the worker and every pool task and waits for all of them. It
// returns the combined failures of the pool's tasks, and ErrCouldNotStop
// when the listener was already stopped.
func (l *Listener) Stop() error {
	if !l.stopped.CompareAndSwap(false, true) {
		return ErrCouldNotStop
	}
	l.running.Store(false)
	close(l.stop)
	if l.pool != nil {
		l.pool.CancelAll()
		l.pool.Close()
	}
	l.wg.Wait()
	if l.pool != nil {
		return l.pool.Wait()
	}
	return nil
}

// runAsyncPort drives one asynchronous port: block until the source
// delivers, drain what else is already available, sleep the interval.
func (l *Listener) runAsyncPort(ctx context.Context, p *AsyncPort) error {
	for {
		if err := l.pauseWait(ctx); err != nil {
			return err
		}
		ev, err := p.poller.Poll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case err != nil:
			if !l.pushFromTask(ctx, queueItem{err: &PollError{Err: err}}) {
				return ctx.Err()
			}
			if IsPermanent(err) {
				return err
			}
		case ev != nil:
			if !l.pushFromTask(ctx, queueItem{ev: ev}) {
				return ctx.Err()
			}
			if err := l.drainAsync(ctx, p); err != nil {
				return err
			}
		}
		if err := sleepCtx(ctx, p.interval); err != nil {
			return err
		}
	}
}

// drainAsync polls p up to max-1 more times with an already-expired
// deadline: a source with nothing buffered returns the context error
// immediately, ending the drain without blocking.
func (l *Listener) drainAsync(ctx context.Context, p *AsyncPort) error {
	expired, cancel := context.WithDeadline(ctx, time.Time{})
	defer cancel()
	for i := 1; i < p.max; i++ {
		ev, err := p.poller.Poll(expired)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			if !l.pushFromTask(ctx, queueItem{err: &PollError{Err: err}}) {
				return ctx.Err()
			}
			if IsPermanent(err) {
				return err
			}
		case ev == nil:
			return nil
		default:
			if !l.pushFromTask(ctx, queueItem{ev: ev}) {
				return ctx.Err()
			}
		}
	}
	return nil
}

// runAsyncTick emits tick events from a pool task instead of the worker.
func (l *Listener) runAsyncTick(ctx context.Context, interval time.Duration) error {
	next := time.Now().Add(interval)
	for {
		if !l.paused.Load() && !time.Now().Before(next) {
			if !l.pushFromTask(ctx, queueItem{ev: event.Tick{}}) {
				return ctx.Err()
			}
			next = time.Now().Add(interval)
		}
		d := min(time.Until(next), maxWorkerSleep)
		if l.paused.Load() {
			d = maxWorkerSleep
		}
		if err := sleepCtx(ctx, d); err != nil {
			return err
		}
	}
}

// pauseWait blocks while the listener is paused.
func (l *Listener) pauseWait(ctx context.Context) error {
	for l.paused.Load() {
		if err := sleepCtx(ctx, maxWorkerSleep); err != nil {
			return err
		}
	}
	return nil
}

// pushFromTask forwards one item from a pool task. It reports false when
// the task is cancelled or the listener stopped.
func (l *Listener) pushFromTask(ctx context.Context, item queueItem) bool {
	select {
	case l.queue <- item:
		return true
	case <-ctx.Done():
		return false
	case <-l.stop:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
