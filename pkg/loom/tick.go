package loom

import (
	"time"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/sub"
)

// Tick receives a batch of events from the listener according to strategy,
// routes each event completely before the next one, and returns the
// messages the components produced, in routing order.
//
// When the listener reports an error mid-batch, the events already
// collected are still routed, and their messages are returned together with
// the error. The error is a listen.PollError for a failed source poll and
// listen.ErrListenerDied once the listener is gone and drained.
func (a *App) Tick(strategy PollStrategy) ([]comp.Msg, error) {
	evs, err := a.collect(strategy)
	var msgs []comp.Msg
	for _, ev := range evs {
		msgs = a.route(ev, msgs)
	}
	return msgs, err
}

// collect receives events per the strategy, stopping at the first listener
// error.
func (a *App) collect(strategy PollStrategy) ([]event.Event, error) {
	timeout := a.listener.PollTimeout()
	var evs []event.Event
	switch s := strategy.(type) {
	case Once:
		return a.pollInto(evs, timeout)
	case TryFor:
		deadline := time.Now().Add(s.D)
		for time.Now().Before(deadline) {
			var err error
			evs, err = a.pollInto(evs, timeout)
			if err != nil {
				return evs, err
			}
		}
		return evs, nil
	case UpTo:
		for i := 0; i < s.N; i++ {
			n := len(evs)
			var err error
			evs, err = a.pollInto(evs, timeout)
			if err != nil {
				return evs, err
			}
			if len(evs) == n {
				break
			}
		}
		return evs, nil
	case UpToNoWait:
		if s.N <= 0 {
			return nil, nil
		}
		evs, err := a.pollInto(evs, timeout)
		if err != nil || len(evs) == 0 {
			return evs, err
		}
		return a.drainNoWait(evs, s.N-1)
	case BlockCollectUpTo:
		if s.N <= 0 {
			return nil, nil
		}
		evs, err := a.pollInto(evs, listen.Forever)
		if err != nil {
			return evs, err
		}
		return a.drainNoWait(evs, s.N-1)
	}
	panic("unreachable")
}

// pollInto performs one receive and appends the event, if there was one.
func (a *App) pollInto(evs []event.Event, timeout time.Duration) ([]event.Event, error) {
	ev, err := a.listener.Poll(timeout)
	if err != nil {
		return evs, err
	}
	if ev != nil {
		evs = append(evs, ev)
	}
	return evs, nil
}

// drainNoWait appends up to n more events without blocking, stopping at the
// first empty receive.
func (a *App) drainNoWait(evs []event.Event, n int) ([]event.Event, error) {
	for i := 0; i < n; i++ {
		ev, err := a.listener.Poll(listen.NoWait)
		if err != nil {
			return evs, err
		}
		if ev == nil {
			break
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

// route delivers one event: first to the focused component, then, unless
// subscriptions are locked, to every subscribed component that is mounted,
// does not hold focus, and whose subscription matches. Nil messages are
// discarded.
func (a *App) route(ev event.Event, msgs []comp.Msg) []comp.Msg {
	focus := a.view.Focus()
	if focus != "" {
		if msg, _ := a.view.Forward(focus, ev); msg != nil {
			msgs = append(msgs, msg)
		}
	}
	if a.subsLocked {
		return msgs
	}
	env := a.env()
	for _, entry := range a.subs {
		if entry.target == focus || !a.view.IsMounted(entry.target) {
			continue
		}
		if !entry.sub.Matches(ev, env) {
			continue
		}
		if msg, _ := a.view.Forward(entry.target, ev); msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// env adapts the view into the environment subscription clauses evaluate
// against. Lookups on unmounted components come back nil, which clauses
// treat as "attribute or state missing".
func (a *App) env() sub.Env {
	return sub.Env{
		Attr: func(id string, name comp.Attribute) comp.AttrValue {
			v, err := a.view.Query(id, name)
			if err != nil {
				return nil
			}
			return v
		},
		State: func(id string) comp.State {
			st, err := a.view.State(id)
			if err != nil {
				return nil
			}
			return st
		},
		Mounted: a.view.IsMounted,
	}
}
