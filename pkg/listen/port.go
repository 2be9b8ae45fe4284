package listen

import "time"

// Port schedules one synchronous source: how often it is polled and how
// many events a single polling cycle may drain. The worker operates on its
// own copy, so a Port value in a Spec can be reused across restarts.
type Port struct {
	poller   Poller
	interval time.Duration
	// Earliest time of the next poll. Only ever advanced, never rewound.
	nextPoll time.Time
	// Cap on events drained per cycle. 0 marks the port retired; retired
	// ports are swept from the active set after the cycle.
	max int
}

// NewPort returns a Port that polls p every interval, draining at most max
// events per cycle. The new port is due immediately.
func NewPort(p Poller, interval time.Duration, max int) *Port {
	return &Port{poller: p, interval: interval, max: max}
}

func (p *Port) retired() bool { return p.max == 0 }

// AsyncPort schedules one asynchronous source. It is driven by a task on
// the listener's pool instead of the worker: each cycle blocks for one
// event, drains at most max-1 more that are already available, and then
// sleeps the interval.
type AsyncPort struct {
	poller   AsyncPoller
	interval time.Duration
	max      int
}

// NewAsyncPort returns an AsyncPort that runs p's poll cycle every
// interval, delivering at most max events per cycle.
func NewAsyncPort(p AsyncPoller, interval time.Duration, max int) *AsyncPort {
	return &AsyncPort{poller: p, interval: interval, max: max}
}
