// Package winch reports changes of the terminal's size as resize events.
package winch

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/sys"
)

// Source produces one event.Resize, carrying the current size of a
// terminal, for every delivery of SIGWINCH. The first poll reports the size
// immediately, so consumers learn the starting geometry without waiting for
// a resize. It implements listen.AsyncPoller.
//
// On platforms without SIGWINCH only the initial event is produced.
type Source struct {
	file *os.File
	ch   chan os.Signal
	once sync.Once
}

// New returns a Source reporting the size of the terminal referenced by f.
func New(f *os.File) *Source {
	// One pending signal is enough: a burst of resizes coalesces into a
	// single event carrying the final size.
	return &Source{file: f, ch: make(chan os.Signal, 1)}
}

// Poll blocks until the next resize, or until ctx is done.
func (s *Source) Poll(ctx context.Context) (event.Event, error) {
	first := false
	s.once.Do(func() {
		signal.Notify(s.ch, sys.SIGWINCH)
		first = true
	})
	if first {
		return s.resize(), nil
	}
	select {
	case <-s.ch:
		return s.resize(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unregisters the signal subscription.
func (s *Source) Close() error {
	signal.Stop(s.ch)
	return nil
}

func (s *Source) resize() event.Event {
	row, col := sys.WinSize(s.file)
	return event.Resize{Rows: row, Cols: col}
}
