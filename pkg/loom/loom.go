// Package loom assembles the pieces of the runtime into one value, the App:
// an event listener feeding a view of mounted components, plus a list of
// subscriptions that fan events out beyond the focused component.
//
// The App is single-threaded. The listener's worker goroutines deliver
// into an internal queue, and all component code runs on the goroutine
// that calls Tick, so components never need locks.
package loom

import (
	"errors"
	"reflect"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/sub"
	"github.com/loomtk/loom/pkg/view"
)

// Errors returned by subscription management.
var (
	ErrAlreadySubscribed  = errors.New("already subscribed")
	ErrNoSuchSubscription = errors.New("no such subscription")
)

// Spec specifies an App.
type Spec struct {
	// Listener configures event acquisition. See listen.Spec for the
	// defaults that apply to its fields.
	Listener listen.Spec
}

// App is the runtime's main object, tying together an event listener, a
// view and the subscription list. Methods of App must be called from a
// single goroutine.
type App struct {
	spec     Spec
	listener *listen.Listener
	view     *view.View

	// Subscriptions in installation order. Order is observable: it is the
	// order subscribed components receive an event in.
	subs       []subscription
	subsLocked bool
}

// subscription routes matching events to one mounted component.
type subscription struct {
	target string
	sub    sub.Sub
}

// New starts a listener from the given spec and returns an App using it.
// The spec is retained so that RestartListener can start an identical
// listener later.
func New(spec Spec) (*App, error) {
	l, err := listen.Start(spec.Listener)
	if err != nil {
		return nil, err
	}
	return &App{spec: spec, listener: l, view: view.New()}, nil
}

// Mount mounts c under id and installs the given subscriptions for it. A
// subscription whose event clause duplicates one already installed for id
// is discarded silently.
func (a *App) Mount(id string, c comp.Component, subs ...sub.Sub) error {
	if err := a.view.Mount(id, c); err != nil {
		return err
	}
	for _, s := range subs {
		a.subscribe(id, s)
	}
	return nil
}

// Umount unmounts the component id and removes all its subscriptions.
func (a *App) Umount(id string) error {
	if err := a.view.Umount(id); err != nil {
		return err
	}
	a.dropSubs(id)
	return nil
}

// Remount replaces the component mounted under id, keeping its focus and
// its subscriptions, and installs any additional subscriptions given. If id
// is not mounted, Remount is a Mount.
func (a *App) Remount(id string, c comp.Component, subs ...sub.Sub) error {
	if err := a.view.Remount(id, c); err != nil {
		return err
	}
	for _, s := range subs {
		a.subscribe(id, s)
	}
	return nil
}

// Active gives focus to the component id.
func (a *App) Active(id string) error { return a.view.Active(id) }

// Blur removes focus from the focused component, restoring the previously
// focused one if there is any.
func (a *App) Blur() error { return a.view.Blur() }

// Query returns the value of the named attribute of the component id.
func (a *App) Query(id string, name comp.Attribute) (comp.AttrValue, error) {
	return a.view.Query(id, name)
}

// SetAttr sets the named attribute on the component id.
func (a *App) SetAttr(id string, name comp.Attribute, v comp.AttrValue) error {
	return a.view.SetAttr(id, name, v)
}

// State returns the state of the component id.
func (a *App) State(id string) (comp.State, error) { return a.view.State(id) }

// Render draws the component id onto the given region of surface.
func (a *App) Render(id string, s comp.Surface, r comp.Region) error {
	return a.view.Render(id, s, r)
}

// Focus returns the ID of the focused component, or "" if none has focus.
func (a *App) Focus() string { return a.view.Focus() }

// IsMounted reports whether a component is mounted under id.
func (a *App) IsMounted(id string) bool { return a.view.IsMounted(id) }

// Mounted returns the IDs of all mounted components, sorted.
func (a *App) Mounted() []string { return a.view.Mounted() }

// AddInjector registers f to supply extra attributes at mount time.
func (a *App) AddInjector(f comp.Injector) { a.view.AddInjector(f) }

// Subscribe installs s for the mounted component id. It returns
// view.ErrNotFound if id is not mounted, and ErrAlreadySubscribed if a
// subscription with an equal event clause is already installed for id.
func (a *App) Subscribe(id string, s sub.Sub) error {
	if !a.view.IsMounted(id) {
		return view.ErrNotFound
	}
	if !a.subscribe(id, s) {
		return ErrAlreadySubscribed
	}
	return nil
}

// Unsubscribe removes the subscription of id whose event clause equals ec.
// It returns ErrNoSuchSubscription if there is none.
func (a *App) Unsubscribe(id string, ec sub.EventClause) error {
	for i, entry := range a.subs {
		if entry.target == id && reflect.DeepEqual(entry.sub.Events(), ec) {
			a.subs = append(a.subs[:i], a.subs[i+1:]...)
			return nil
		}
	}
	return ErrNoSuchSubscription
}

// LockSubs suspends subscription routing. Until UnlockSubs is called,
// events reach the focused component only.
func (a *App) LockSubs() { a.subsLocked = true }

// UnlockSubs resumes subscription routing.
func (a *App) UnlockSubs() { a.subsLocked = false }

// subscribe installs s for target unless an equal event clause is already
// installed for it, and reports whether it did.
func (a *App) subscribe(target string, s sub.Sub) bool {
	for _, entry := range a.subs {
		if entry.target == target && reflect.DeepEqual(entry.sub.Events(), s.Events()) {
			return false
		}
	}
	a.subs = append(a.subs, subscription{target, s})
	return true
}

// dropSubs removes all subscriptions installed for target.
func (a *App) dropSubs(target string) {
	kept := a.subs[:0]
	for _, entry := range a.subs {
		if entry.target != target {
			kept = append(kept, entry)
		}
	}
	a.subs = kept
}

// Pause makes the listener stop polling and ticking until Unpause. Events
// already queued are still delivered by Tick.
func (a *App) Pause() { a.listener.Pause() }

// Unpause undoes Pause. Polls that became due while paused are performed
// promptly.
func (a *App) Unpause() { a.listener.Unpause() }

// Stop stops the listener. Tick returns listen.ErrListenerDied after the
// queue runs dry; the view and the subscriptions remain usable.
func (a *App) Stop() error { return a.listener.Stop() }

// RestartListener replaces the listener with a fresh one started from the
// retained spec. The old listener is stopped first; a listener that has
// already died or been stopped does not make the restart fail.
func (a *App) RestartListener() error {
	a.listener.Stop()
	l, err := listen.Start(a.spec.Listener)
	if err != nil {
		return err
	}
	a.listener = l
	return nil
}
