// Package view implements the component registry of the runtime: components
// mounted under opaque string ids, the single focus, and the focus history
// used to restore focus on blur.
//
// A View is not safe for concurrent use. The application owns it and
// serializes access; subscriptions and clauses only ever see it through
// read-only accessor functions.
package view

import (
	"errors"
	"sort"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
)

// Errors returned by View operations.
var (
	ErrInvalidID         = errors.New("invalid component id")
	ErrAlreadyMounted    = errors.New("component already mounted")
	ErrNotFound          = errors.New("component not found")
	ErrNoComponentToBlur = errors.New("no component to blur")
)

// View owns mounted components and the focus state.
type View struct {
	components map[string]comp.Component
	// Id of the focused component; "" when nothing has focus. The empty
	// string is not a valid id, so the two cannot be confused.
	focus string
	// Previously focused ids, most recent last. Never contains focus, and
	// never contains an id twice.
	stack     []string
	injectors []comp.Injector
}

// New returns an empty View.
func New() *View {
	return &View{components: make(map[string]comp.Component)}
}

// Mount adds c under id and applies every registered injector to it.
// It returns ErrInvalidID if id is empty and ErrAlreadyMounted if id is
// taken.
func (v *View) Mount(id string, c comp.Component) error {
	if id == "" {
		return ErrInvalidID
	}
	if _, ok := v.components[id]; ok {
		return ErrAlreadyMounted
	}
	v.components[id] = c
	v.inject(id, c)
	return nil
}

// Umount removes the component under id, blurring it first if it holds
// focus and dropping it from the focus history. It returns ErrNotFound if
// id is not mounted.
func (v *View) Umount(id string) error {
	if _, ok := v.components[id]; !ok {
		return ErrNotFound
	}
	if v.focus == id {
		v.Blur()
	}
	v.removeFromStack(id)
	delete(v.components, id)
	return nil
}

// Remount replaces the component under id, mounting it if absent, and
// preserves whether id holds focus across the replacement. It returns
// ErrInvalidID if id is empty.
func (v *View) Remount(id string, c comp.Component) error {
	if id == "" {
		return ErrInvalidID
	}
	hadFocus := v.focus == id
	v.components[id] = c
	v.inject(id, c)
	if hadFocus {
		return v.Active(id)
	}
	return nil
}

// Active gives id the focus: the previous holder, if any, loses its focus
// attribute and goes on top of the focus history, and id's focus attribute
// is set. It returns ErrNotFound if id is not mounted.
func (v *View) Active(id string) error {
	c, ok := v.components[id]
	if !ok {
		return ErrNotFound
	}
	if prev := v.focus; prev != "" && prev != id {
		v.components[prev].SetAttr(comp.Focus, false)
		v.removeFromStack(prev)
		v.stack = append(v.stack, prev)
	}
	v.removeFromStack(id)
	c.SetAttr(comp.Focus, true)
	v.focus = id
	return nil
}

// Blur takes the focus away from the current holder and restores the most
// recently focused component from the history; with an empty history,
// nothing has focus afterwards. It returns ErrNoComponentToBlur if nothing
// has focus.
func (v *View) Blur() error {
	if v.focus == "" {
		return ErrNoComponentToBlur
	}
	v.components[v.focus].SetAttr(comp.Focus, false)
	v.focus = ""
	if n := len(v.stack); n > 0 {
		restored := v.stack[n-1]
		v.stack = v.stack[:n-1]
		v.components[restored].SetAttr(comp.Focus, true)
		v.focus = restored
	}
	return nil
}

// Forward delivers ev to the component under id and returns its message.
func (v *View) Forward(id string, ev event.Event) (comp.Msg, error) {
	c, ok := v.components[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.On(ev), nil
}

// Query returns the value of the component's attribute, or nil if the
// component does not have it.
func (v *View) Query(id string, a comp.Attribute) (comp.AttrValue, error) {
	c, ok := v.components[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Query(a), nil
}

// SetAttr sets an attribute on the component under id.
func (v *View) SetAttr(id string, a comp.Attribute, val comp.AttrValue) error {
	c, ok := v.components[id]
	if !ok {
		return ErrNotFound
	}
	c.SetAttr(a, val)
	return nil
}

// State returns the state of the component under id.
func (v *View) State(id string) (comp.State, error) {
	c, ok := v.components[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.State(), nil
}

// Render draws the component under id onto the given region of surface.
func (v *View) Render(id string, s comp.Surface, r comp.Region) error {
	c, ok := v.components[id]
	if !ok {
		return ErrNotFound
	}
	c.Render(s, r)
	return nil
}

// Focus returns the id of the focused component, or "" if none has focus.
func (v *View) Focus() string { return v.focus }

// IsMounted reports whether a component is mounted under id.
func (v *View) IsMounted(id string) bool {
	_, ok := v.components[id]
	return ok
}

// Mounted returns the ids of all mounted components, sorted.
func (v *View) Mounted() []string {
	ids := make([]string, 0, len(v.components))
	for id := range v.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddInjector registers inj to run against every component mounted or
// remounted from now on.
func (v *View) AddInjector(inj comp.Injector) {
	v.injectors = append(v.injectors, inj)
}

func (v *View) inject(id string, c comp.Component) {
	for _, inj := range v.injectors {
		for _, pair := range inj(id) {
			c.SetAttr(pair.Name, pair.Value)
		}
	}
}

func (v *View) removeFromStack(id string) {
	for i, s := range v.stack {
		if s == id {
			v.stack = append(v.stack[:i], v.stack[i+1:]...)
			return
		}
	}
}
