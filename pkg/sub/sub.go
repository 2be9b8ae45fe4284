// Package sub implements the subscription engine: per-event boolean
// expressions that decide which non-focused components should also receive
// an event. Clause trees are immutable values; sharing one tree across many
// subscriptions is free.
package sub

import (
	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
)

// Env gives a clause read access to the state of the view it is evaluated
// against. All three accessors must be non-nil.
type Env struct {
	// Attr returns the value of a component's attribute, or nil if the
	// component is not mounted or does not have the attribute.
	Attr func(id string, name comp.Attribute) comp.AttrValue
	// State returns a component's state, or nil if it is not mounted.
	State func(id string) comp.State
	// Mounted reports whether a component is mounted.
	Mounted func(id string) bool
}

// Sub pairs an event clause with a condition on view state. A subscription
// fires only when both match.
type Sub struct {
	events EventClause
	when   Clause
}

// New returns a Sub firing on events matched by ec while when holds.
func New(ec EventClause, when Clause) Sub {
	return Sub{events: ec, when: when}
}

// Events returns the event clause. Two subscriptions for the same component
// are considered duplicates when their event clauses are structurally equal.
func (s Sub) Events() EventClause { return s.events }

// Matches reports whether the subscription fires for ev under env.
func (s Sub) Matches(ev event.Event, env Env) bool {
	return s.events.matches(ev) && s.when.eval(env)
}
