package listen

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/loomtk/loom/pkg/event"
)

// Poller is the synchronous poll capability. Poll returns the next
// available event, or (nil, nil) when no event is available right now; it
// must not block noticeably past the owning port's interval.
type Poller interface {
	Poll() (event.Event, error)
}

// PollerFunc adapts a function to a Poller.
type PollerFunc func() (event.Event, error)

// Poll calls f.
func (f PollerFunc) Poll() (event.Event, error) { return f() }

// AsyncPoller is the asynchronous poll capability. Poll blocks until an
// event arrives, the source fails, or ctx is done, in which case it returns
// ctx's error.
type AsyncPoller interface {
	Poll(ctx context.Context) (event.Event, error)
}

// AsyncPollerFunc adapts a function to an AsyncPoller.
type AsyncPollerFunc func(ctx context.Context) (event.Event, error)

// Poll calls f.
func (f AsyncPollerFunc) Poll(ctx context.Context) (event.Event, error) { return f(ctx) }

// ChanSource returns a Poller that drains ch without blocking. Once ch is
// closed the source fails permanently with ErrSourceClosed, retiring its
// port.
func ChanSource(ch <-chan event.Event) Poller {
	return PollerFunc(func() (event.Event, error) {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil, Permanent(ErrSourceClosed)
			}
			return ev, nil
		default:
			return nil, nil
		}
	})
}

// Line is the payload of the user events a LineSource emits.
type Line string

// LineSource returns an AsyncPoller that reads r line by line and delivers
// each line, without its trailing newline, as an event.User{Line} event.
// The blocking reads run on an internal goroutine paced by Poll calls, so a
// cancelled Poll leaves the pending line for the next call instead of
// losing it. Reaching EOF is a permanent failure wrapping io.EOF.
func LineSource(r io.Reader) AsyncPoller {
	return &lineSource{r: r, lines: make(chan string)}
}

type lineSource struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	err   error // set before lines is closed
}

func (s *lineSource) Poll(ctx context.Context) (event.Event, error) {
	s.once.Do(s.start)
	select {
	case line, ok := <-s.lines:
		if !ok {
			return nil, s.err
		}
		return event.User{Payload: Line(line)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *lineSource) start() {
	go func() {
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		s.err = Permanent(err)
		close(s.lines)
	}()
}
