// Package event defines the events that flow from sources through the
// listener into an application: key presses, mouse actions, terminal
// resizes, pastes, ticks and application-defined user events.
package event

// Event is a single input consumed by the runtime. The concrete types are
// Key, Mouse, Resize, Paste, Tick and User.
type Event interface{ isEvent() }

// Mouse represents a mouse button press or release.
type Mouse struct {
	Row, Col int
	Button   int
	Down     bool
	Mod      Mod
}

// Resize reports the new size of the terminal.
type Resize struct{ Rows, Cols int }

// Paste carries text pasted into the terminal in one chunk.
type Paste string

// Tick marks the passing of one tick interval of the listener.
type Tick struct{}

// User wraps an application-defined payload. Sources that produce domain
// events (a parsed line, a network message) deliver them as User events;
// the runtime never inspects the payload beyond matching subscriptions
// against it.
type User struct{ Payload any }

func (Key) isEvent()    {}
func (Mouse) isEvent()  {}
func (Resize) isEvent() {}
func (Paste) isEvent()  {}
func (Tick) isEvent()   {}
func (User) isEvent()   {}
