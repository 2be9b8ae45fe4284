package sub

import (
	"reflect"

	"github.com/loomtk/loom/pkg/comp"
)

// Clause is a boolean condition over view state, evaluated with
// short-circuiting each time a subscription's event clause has matched.
// Build one with Always, HasAttr, HasState, IsMounted, Not, And, AndMany,
// Or or OrMany.
type Clause interface {
	eval(env Env) bool
}

// Always returns a clause that always holds.
func Always() Clause { return always{} }

// HasAttr returns a clause that holds while the component's attribute has a
// value deeply equal to value. A missing attribute never matches.
func HasAttr(id string, name comp.Attribute, value comp.AttrValue) Clause {
	return hasAttr{id, name, value}
}

// HasState returns a clause that holds while the component's state is deeply
// equal to state. A missing state never matches.
func HasState(id string, state comp.State) Clause {
	return hasState{id, state}
}

// IsMounted returns a clause that holds while the component is mounted.
func IsMounted(id string) Clause { return isMounted{id} }

// Not returns the negation of c.
func Not(c Clause) Clause { return not{c} }

// And returns the conjunction of a and b.
func And(a, b Clause) Clause { return and{a, b} }

// AndMany returns the conjunction of cs. With no clauses it evaluates to
// false, not true; callers relying on an empty conjunction get a
// subscription that never fires.
func AndMany(cs ...Clause) Clause { return andMany{cs} }

// Or returns the disjunction of a and b.
func Or(a, b Clause) Clause { return or{a, b} }

// OrMany returns the disjunction of cs. With no clauses it evaluates to
// false.
func OrMany(cs ...Clause) Clause { return orMany{cs} }

type always struct{}

type hasAttr struct {
	id    string
	name  comp.Attribute
	value comp.AttrValue
}

type hasState struct {
	id    string
	state comp.State
}

type isMounted struct{ id string }
type not struct{ c Clause }
type and struct{ a, b Clause }
type andMany struct{ cs []Clause }
type or struct{ a, b Clause }
type orMany struct{ cs []Clause }

func (always) eval(Env) bool { return true }

func (c hasAttr) eval(env Env) bool {
	v := env.Attr(c.id, c.name)
	return v != nil && reflect.DeepEqual(v, c.value)
}

func (c hasState) eval(env Env) bool {
	st := env.State(c.id)
	return st != nil && reflect.DeepEqual(st, c.state)
}

func (c isMounted) eval(env Env) bool { return env.Mounted(c.id) }

func (c not) eval(env Env) bool { return !c.c.eval(env) }

func (c and) eval(env Env) bool { return c.a.eval(env) && c.b.eval(env) }

func (c andMany) eval(env Env) bool {
	if len(c.cs) == 0 {
		return false
	}
	for _, sub := range c.cs {
		if !sub.eval(env) {
			return false
		}
	}
	return true
}

func (c or) eval(env Env) bool { return c.a.eval(env) || c.b.eval(env) }

func (c orMany) eval(env Env) bool {
	for _, sub := range c.cs {
		if sub.eval(env) {
			return true
		}
	}
	return false
}
