package demo

import (
	"context"
	"io"
	"strings"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
)

// keySource reads input lines and emits each as a key event. A line names
// one chord in the syntax of event.ParseKey, like "a", "Up" or "Ctrl-X".
// Blank lines emit nothing; a line that names no chord is a transient poll
// error.
type keySource struct {
	lines listen.AsyncPoller
}

func newKeySource(r io.Reader) keySource {
	return keySource{lines: listen.LineSource(r)}
}

func (s keySource) Poll(ctx context.Context) (event.Event, error) {
	ev, err := s.lines.Poll(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := ev.(event.User)
	if !ok {
		return ev, nil
	}
	line, ok := user.Payload.(listen.Line)
	if !ok {
		return ev, nil
	}
	chord := strings.TrimSpace(string(line))
	if chord == "" {
		return nil, nil
	}
	k, err := event.ParseKey(chord)
	if err != nil {
		return nil, err
	}
	return k, nil
}
