package rec

import (
	"io"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
)

// Replay returns a poller that delivers the recorded events in their
// original order. After the last event it fails permanently with io.EOF,
// retiring its port, like a LineSource whose input ended.
func (r *Recorder) Replay() (listen.Poller, error) {
	evs, err := r.Events()
	if err != nil {
		return nil, err
	}
	return &replayer{evs: evs}, nil
}

type replayer struct {
	evs []event.Event
}

func (p *replayer) Poll() (event.Event, error) {
	if len(p.evs) == 0 {
		return nil, listen.Permanent(io.EOF)
	}
	ev := p.evs[0]
	p.evs = p.evs[1:]
	return ev, nil
}
