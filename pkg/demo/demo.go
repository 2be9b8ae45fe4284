// Package demo implements the demo subprogram of loomdemo, a small terminal
// application assembled from the runtime's pieces: a clock driven by tick
// events, a size readout driven by resize events, and a counter driven by
// key chords typed one per line.
package demo

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/ctl"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/logutil"
	"github.com/loomtk/loom/pkg/loom"
	"github.com/loomtk/loom/pkg/prog"
	"github.com/loomtk/loom/pkg/rec"
	"github.com/loomtk/loom/pkg/sub"
	"github.com/loomtk/loom/pkg/sys"
	"github.com/loomtk/loom/pkg/winch"
)

var logger = logutil.GetLogger("[demo] ")

// Component ids.
const (
	compClock   = "clock"
	compCounter = "counter"
	compStatus  = "status"
)

// How many queued events one turn of the loop handles at most.
const batchSize = 16

// Pace replayed events so a playback is watchable. Overridable in tests.
var replayInterval = 100 * time.Millisecond

// Poll the control feed often enough that injected chords feel immediate.
const ctlInterval = 10 * time.Millisecond

// Program is the demo subprogram.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) > 0 {
		return prog.BadUsage("loomdemo accepts no arguments")
	}
	if f.Replay && f.Record == "" {
		return prog.BadUsage("-replay requires -record")
	}
	cfg, err := loadConfig(f.Config)
	if err != nil {
		return err
	}
	if !sys.IsATTY(fds[1].Fd()) {
		return errors.New("stdout is not a terminal")
	}
	return run(fds, f, cfg)
}

func run(fds [3]*os.File, f *prog.Flags, cfg *config) error {
	spec := listen.Spec{Tick: cfg.tick, PollTimeout: cfg.timeout}

	var recorder *rec.Recorder
	if f.Record != "" {
		var err error
		recorder, err = rec.Open(f.Record)
		if err != nil {
			return err
		}
		defer recorder.Close()
	}

	if f.Replay {
		source, err := recorder.Replay()
		if err != nil {
			return err
		}
		spec.Ports = append(spec.Ports,
			listen.NewPort(source, replayInterval, batchSize))
	} else {
		var source listen.AsyncPoller = newKeySource(fds[0])
		if recorder != nil {
			source = recorder.WrapAsync(source)
		}
		spec.AsyncPorts = append(spec.AsyncPorts,
			listen.NewAsyncPort(source, 0, batchSize))
	}

	resize := winch.New(fds[1])
	defer resize.Close()
	spec.AsyncPorts = append(spec.AsyncPorts, listen.NewAsyncPort(resize, 0, 1))

	var srv *ctl.Server
	if f.Ctl != "" {
		listener, err := net.Listen("unix", f.Ctl)
		if err != nil {
			return err
		}
		srv = ctl.NewServer(listener)
		defer srv.Close()
		spec.Ports = append(spec.Ports,
			listen.NewPort(srv.Feed(), ctlInterval, batchSize))
	}

	app, err := loom.New(loom.Spec{Listener: spec})
	if err != nil {
		return err
	}
	defer app.Stop()

	if err := mount(app, cfg); err != nil {
		return err
	}
	return loop(app, srv, fds[1], fds[2])
}

func mount(app *loom.App, cfg *config) error {
	err := app.Mount(compClock, newClock(time.Now),
		sub.New(sub.Ticked(), sub.Always()))
	if err != nil {
		return err
	}
	err = app.Mount(compStatus, newStatus(),
		sub.New(sub.Resized(), sub.Always()))
	if err != nil {
		return err
	}
	if err := app.Mount(compCounter, newCounter(cfg.keys)); err != nil {
		return err
	}
	return app.Active(compCounter)
}

// loop drives the application until a quit binding fires or the input ends.
func loop(app *loom.App, srv *ctl.Server, out, errOut *os.File) error {
	fmt.Fprintln(out, "Type a chord like q, r, Up, Down or Ctrl-D and press Enter.")
	draw(app, out)
	for {
		msgs, err := app.Tick(loom.UpToNoWait{N: batchSize})
		dirty := false
		for _, msg := range msgs {
			switch msg.(type) {
			case quitMsg:
				fmt.Fprintln(out)
				return nil
			case drawMsg:
				dirty = true
			}
		}
		if dirty {
			draw(app, out)
		}
		if srv != nil {
			srv.Dispatch(app)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// The input or the replayed recording ended.
			fmt.Fprintln(out)
			return nil
		case errors.Is(err, listen.ErrListenerDied):
			return err
		default:
			logger.Println("drain:", err)
			fmt.Fprintln(errOut, "Warning:", err)
		}
	}
}

// draw repaints the status line in place.
func draw(app *loom.App, out *os.File) {
	parts := make([]string, 0, 3)
	for _, id := range []string{compClock, compCounter, compStatus} {
		scr := newScreen(1)
		if err := app.Render(id, scr, comp.Region{Width: 24, Height: 1}); err != nil {
			continue
		}
		parts = append(parts, scr.lines[0])
	}
	fmt.Fprintf(out, "\r\x1b[K%s", strings.Join(parts, "  |  "))
}

// screen is the line-based surface the demo's components render onto.
type screen struct {
	lines []string
}

func newScreen(rows int) *screen { return &screen{lines: make([]string, rows)} }

func (s *screen) setLine(y int, text string) {
	if 0 <= y && y < len(s.lines) {
		s.lines[y] = text
	}
}

func (s *screen) String() string { return strings.Join(s.lines, "\n") }
