package sub

import (
	"reflect"

	"github.com/loomtk/loom/pkg/event"
)

// EventClause selects events by kind and, for some kinds, by content. Build
// one with Any, Keyboard, MouseIn, Resized, Ticked, User or Discriminant.
type EventClause interface {
	matches(ev event.Event) bool
}

// Any returns a clause matching every event.
func Any() EventClause { return anyClause{} }

// Keyboard returns a clause matching every key event.
func Keyboard() EventClause { return keyboardClause{} }

// MouseRange bounds the terminal area a MouseIn clause covers. All bounds
// are inclusive.
type MouseRange struct {
	FromRow, ToRow int
	FromCol, ToCol int
}

// MouseIn returns a clause matching mouse events inside r.
func MouseIn(r MouseRange) EventClause { return mouseClause{r} }

// Resized returns a clause matching every resize event.
func Resized() EventClause { return resizedClause{} }

// Ticked returns a clause matching every tick event.
func Ticked() EventClause { return tickedClause{} }

// User returns a clause matching user events whose payload is deeply equal
// to payload.
func User(payload any) EventClause { return userClause{payload} }

// Discriminant returns a clause matching user events whose payload has the
// same dynamic type as payload, regardless of its value.
func Discriminant(payload any) EventClause { return discriminantClause{payload} }

type anyClause struct{}
type keyboardClause struct{}
type mouseClause struct{ r MouseRange }
type resizedClause struct{}
type tickedClause struct{}
type userClause struct{ payload any }
type discriminantClause struct{ payload any }

func (anyClause) matches(event.Event) bool { return true }

func (keyboardClause) matches(ev event.Event) bool {
	_, ok := ev.(event.Key)
	return ok
}

func (c mouseClause) matches(ev event.Event) bool {
	m, ok := ev.(event.Mouse)
	return ok &&
		c.r.FromRow <= m.Row && m.Row <= c.r.ToRow &&
		c.r.FromCol <= m.Col && m.Col <= c.r.ToCol
}

func (resizedClause) matches(ev event.Event) bool {
	_, ok := ev.(event.Resize)
	return ok
}

func (tickedClause) matches(ev event.Event) bool {
	_, ok := ev.(event.Tick)
	return ok
}

func (c userClause) matches(ev event.Event) bool {
	u, ok := ev.(event.User)
	return ok && reflect.DeepEqual(u.Payload, c.payload)
}

func (c discriminantClause) matches(ev event.Event) bool {
	u, ok := ev.(event.User)
	return ok && reflect.TypeOf(u.Payload) == reflect.TypeOf(c.payload)
}
