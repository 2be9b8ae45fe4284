// Package loomtest provides utilities for testing loom.App.
package loomtest

import (
	"io"
	"testing"
	"time"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/loom"
	"github.com/loomtk/loom/pkg/testutil"
)

// Maximum number of results a ScriptSource can hold undelivered.
const scriptSourceBuffer = 1024

type scriptItem struct {
	ev  event.Event
	err error
}

// ScriptSource is a listen.Poller that returns exactly what the test
// injected, in order, and reports no event once the script is exhausted.
type ScriptSource struct {
	items chan scriptItem
}

// NewScriptSource creates a ScriptSource.
func NewScriptSource() *ScriptSource {
	return &ScriptSource{items: make(chan scriptItem, scriptSourceBuffer)}
}

// Inject appends events to the script.
func (s *ScriptSource) Inject(evs ...event.Event) {
	for _, ev := range evs {
		s.items <- scriptItem{ev: ev}
	}
}

// InjectError appends a poll failure to the script.
func (s *ScriptSource) InjectError(err error) {
	s.items <- scriptItem{err: err}
}

// Poll returns the next scripted result without blocking.
func (s *ScriptSource) Poll() (event.Event, error) {
	select {
	case it := <-s.items:
		return it.ev, it.err
	default:
		return nil, nil
	}
}

// Comp is a scripted component. The zero value ignores events, has no
// attributes or state, and draws nothing.
type Comp struct {
	// OnEvent decides the message produced for each event; a nil OnEvent
	// produces none. Every event is recorded regardless.
	OnEvent func(ev event.Event) comp.Msg
	// PerformFunc decides the result of Perform. A nil PerformFunc makes
	// every command a no-op.
	PerformFunc func(c comp.Cmd) comp.CmdResult
	// Text is what Render writes when the surface is an io.Writer.
	Text string
	// StateVal is what State returns.
	StateVal comp.State

	attrs  map[comp.Attribute]comp.AttrValue
	events []event.Event
}

func (c *Comp) Render(s comp.Surface, r comp.Region) {
	if w, ok := s.(io.Writer); ok {
		io.WriteString(w, c.Text)
	}
}

func (c *Comp) Query(name comp.Attribute) comp.AttrValue { return c.attrs[name] }

func (c *Comp) SetAttr(name comp.Attribute, v comp.AttrValue) {
	if c.attrs == nil {
		c.attrs = make(map[comp.Attribute]comp.AttrValue)
	}
	c.attrs[name] = v
}

func (c *Comp) State() comp.State { return c.StateVal }

func (c *Comp) Perform(cmd comp.Cmd) comp.CmdResult {
	if c.PerformFunc == nil {
		return comp.None
	}
	return c.PerformFunc(cmd)
}

// On records ev and produces whatever OnEvent decides.
func (c *Comp) On(ev event.Event) comp.Msg {
	c.events = append(c.events, ev)
	if c.OnEvent == nil {
		return nil
	}
	return c.OnEvent(ev)
}

// Events returns the events received so far.
func (c *Comp) Events() []event.Event { return c.events }

// Fixture is an App wired to a ScriptSource, for tests.
type Fixture struct {
	App    *loom.App
	Source *ScriptSource
}

// Setup sets up a Fixture. The spec passed to the option functions already
// has the fixture's ScriptSource wired as an input port; options may adjust
// it or add more ports. The App is stopped in test cleanup.
func Setup(t *testing.T, fns ...func(*loom.Spec)) *Fixture {
	t.Helper()
	src := NewScriptSource()
	spec := loom.Spec{Listener: listen.Spec{
		Ports: []*listen.Port{
			listen.NewPort(src, testutil.Scaled(time.Millisecond), 32),
		},
		PollTimeout: testutil.Scaled(10 * time.Millisecond),
	}}
	for _, fn := range fns {
		fn(&spec)
	}
	app, err := loom.New(spec)
	if err != nil {
		t.Fatalf("loom.New -> error %v", err)
	}
	t.Cleanup(func() { app.Stop() })
	return &Fixture{App: app, Source: src}
}

// Collect ticks the App with a time box long enough for anything already
// injected to arrive, and returns the messages.
func (f *Fixture) Collect(t *testing.T) []comp.Msg {
	t.Helper()
	msgs, err := f.App.Tick(loom.TryFor{D: testutil.Scaled(50 * time.Millisecond)})
	if err != nil {
		t.Fatalf("Tick -> error %v", err)
	}
	return msgs
}
