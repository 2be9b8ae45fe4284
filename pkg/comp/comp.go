// Package comp defines the capability interfaces through which the runtime
// drives UI components. Concrete widgets (inputs, lists, charts) live in
// other modules and plug in by implementing Component; the runtime never
// depends on what they draw or how they store their properties.
package comp

import "github.com/loomtk/loom/pkg/event"

// Attribute names a property of a component.
type Attribute string

// Conventional attributes understood by most components. Components may
// define further names; any string is a valid Attribute.
const (
	Focus   Attribute = "focus"
	Value   Attribute = "value"
	Text    Attribute = "text"
	Title   Attribute = "title"
	Display Attribute = "display"
)

// AttrValue is the value of a component attribute. Components define the
// concrete types; the runtime only stores and compares them. A nil AttrValue
// means the attribute is not set.
type AttrValue any

// State is an opaque snapshot of a component's internal state, exposed for
// subscription clauses and application logic to inspect.
type State any

// Msg is what a component hands back from On to be returned to the
// application. A nil Msg means the event produced no message.
type Msg any

// Surface is the drawing target passed through to Render. The runtime never
// inspects it; it only carries it from the caller to the component.
type Surface any

// Region is the rectangle of the surface a component renders into.
type Region struct {
	X, Y          int
	Width, Height int
}

// Widget is the low-level rendering and state surface of a component.
type Widget interface {
	// Render draws the widget onto the given region of the surface. It may
	// mutate internal state as part of laying out.
	Render(s Surface, r Region)
	// Query returns the value of the given attribute, or nil if the widget
	// does not have it.
	Query(a Attribute) AttrValue
	// SetAttr sets the given attribute.
	SetAttr(a Attribute, v AttrValue)
	// State returns a snapshot of the widget's state.
	State() State
	// Perform applies a behavioral command and reports what it changed.
	Perform(c Cmd) CmdResult
}

// Component is a Widget that also reacts to events. On is the only method
// the view and the application call to route an event; it returns the
// message to surface to the application, or nil for none.
type Component interface {
	Widget
	On(ev event.Event) Msg
}

// AttrPair is one attribute assignment produced by an Injector.
type AttrPair struct {
	Name  Attribute
	Value AttrValue
}

// Injector computes initial attributes for a component as a pure function of
// its id. Every registered injector runs when a component is mounted or
// remounted.
type Injector func(id string) []AttrPair
