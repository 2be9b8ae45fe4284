package rec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
)

// Applications recording event.User with their own payload types must
// register those types with encoding/gob.
func init() {
	gob.Register(listen.Line(""))
}

type kind byte

const (
	kindKey kind = iota
	kindMouse
	kindResize
	kindPaste
	kindTick
	kindUser
)

// envelope flattens the event union into one gob-friendly record. Kind
// selects which payload field is meaningful.
type envelope struct {
	Kind    kind
	Key     event.Key
	Mouse   event.Mouse
	Resize  event.Resize
	Paste   string
	Payload any
}

func encodeEvent(ev event.Event) ([]byte, error) {
	var env envelope
	switch ev := ev.(type) {
	case event.Key:
		env = envelope{Kind: kindKey, Key: ev}
	case event.Mouse:
		env = envelope{Kind: kindMouse, Mouse: ev}
	case event.Resize:
		env = envelope{Kind: kindResize, Resize: ev}
	case event.Paste:
		env = envelope{Kind: kindPaste, Paste: string(ev)}
	case event.Tick:
		env = envelope{Kind: kindTick}
	case event.User:
		env = envelope{Kind: kindUser, Payload: ev.Payload}
	default:
		return nil, fmt.Errorf("cannot record event of type %T", ev)
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(env)
	return buf.Bytes(), err
}

func decodeEvent(data []byte) (event.Event, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case kindKey:
		return env.Key, nil
	case kindMouse:
		return env.Mouse, nil
	case kindResize:
		return env.Resize, nil
	case kindPaste:
		return event.Paste(env.Paste), nil
	case kindTick:
		return event.Tick{}, nil
	case kindUser:
		return event.User{Payload: env.Payload}, nil
	}
	return nil, fmt.Errorf("unknown event kind %d", env.Kind)
}
