package listen

import (
	"sync/atomic"
	"time"

	"github.com/loomtk/loom/pkg/event"
)

// maxWorkerSleep caps how long the worker sleeps in one cycle. The cap
// bounds how long a Pause, Unpause or Stop can go unnoticed.
const maxWorkerSleep = 25 * time.Millisecond

// queueItem carries one event or one error from a producer to Poll, never
// both.
type queueItem struct {
	ev  event.Event
	err error
}

// worker polls all synchronous ports and emits synchronous ticks from a
// single background goroutine. It owns its port slice exclusively.
type worker struct {
	ports    []*Port
	tick     time.Duration // 0 disables ticking
	nextTick time.Time

	queue chan<- queueItem
	stop  <-chan struct{}
	done  chan<- struct{}

	paused  *atomic.Bool
	running *atomic.Bool
}

func (w *worker) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("worker died: %v", r)
		}
	}()
	if w.tick > 0 {
		w.nextTick = time.Now().Add(w.tick)
	}
	for w.running.Load() {
		if !w.paused.Load() {
			if !w.pollDue(time.Now()) {
				return
			}
		}
		w.sleep(time.Now())
	}
}

// pollDue runs one polling cycle: drain every due port, sweep ports retired
// during the cycle, and emit a tick if the tick deadline has passed. It
// reports false when the consumer is gone, which ends the worker.
func (w *worker) pollDue(now time.Time) bool {
	for _, p := range w.ports {
		if p.retired() || now.Before(p.nextPoll) {
			continue
		}
		if !w.drain(p) {
			return false
		}
		p.nextPoll = now.Add(p.interval)
	}
	w.sweepRetired()
	if w.tick > 0 && !now.Before(w.nextTick) {
		if !w.push(queueItem{ev: event.Tick{}}) {
			return false
		}
		w.nextTick = now.Add(w.tick)
	}
	return true
}

// drain polls p up to its per-cycle cap, stopping early when no event is
// available. Every result, error or not, is forwarded; a permanent error
// additionally retires the port.
func (w *worker) drain(p *Port) bool {
	for i := 0; i < p.max; i++ {
		ev, err := p.poller.Poll()
		switch {
		case err != nil:
			if !w.push(queueItem{err: &PollError{Err: err}}) {
				return false
			}
			if IsPermanent(err) {
				p.max = 0
				return true
			}
		case ev == nil:
			return true
		default:
			if !w.push(queueItem{ev: ev}) {
				return false
			}
		}
	}
	return true
}

func (w *worker) sweepRetired() {
	live := w.ports[:0]
	for _, p := range w.ports {
		if !p.retired() {
			live = append(live, p)
		}
	}
	w.ports = live
}

// push forwards one item to the consumer. It reports false when the
// listener has been stopped.
func (w *worker) push(item queueItem) bool {
	select {
	case w.queue <- item:
		return true
	case <-w.stop:
		return false
	}
}

// sleep waits until the next deadline, but no longer than maxWorkerSleep.
// While paused the deadlines do not matter: they are left alone, so
// whatever came due fires on resume.
func (w *worker) sleep(now time.Time) {
	d := maxWorkerSleep
	if !w.paused.Load() {
		if w.tick > 0 {
			d = min(d, w.nextTick.Sub(now))
		}
		for _, p := range w.ports {
			d = min(d, p.nextPoll.Sub(now))
		}
		if d <= 0 {
			return
		}
	}
	select {
	case <-time.After(d):
	case <-w.stop:
	}
}
