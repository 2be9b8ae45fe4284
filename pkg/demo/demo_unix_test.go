//go:build unix

package demo

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/loomtk/loom/pkg/ctl"
	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/prog"
	"github.com/loomtk/loom/pkg/rec"
	"github.com/loomtk/loom/pkg/testutil"
)

// startSession starts the demo on a fresh pty, typing script into it, and
// returns a channel that delivers what Run returned. The pty's output is
// read and discarded so the demo never blocks on a full buffer.
func startSession(t *testing.T, f *prog.Flags, script string) <-chan error {
	t.Helper()
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open pty: %v", err)
	}
	t.Cleanup(func() {
		ptm.Close()
		pts.Close()
	})
	if err := pty.Setsize(ptm, &pty.Winsize{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("cannot size pty: %v", err)
	}
	go io.Copy(io.Discard, ptm)
	if _, err := io.WriteString(ptm, script); err != nil {
		t.Fatalf("cannot write script: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- Program{}.Run([3]*os.File{pts, pts, pts}, f, nil)
	}()
	return done
}

func waitSession(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(testutil.Scaled(5 * time.Second)):
		t.Fatal("session did not end")
		return nil
	}
}

func runSession(t *testing.T, f *prog.Flags, script string) error {
	t.Helper()
	return waitSession(t, startSession(t, f, script))
}

func TestProgram_RunsASessionOnATerminal(t *testing.T) {
	err := runSession(t, &prog.Flags{}, "Up\nq\n")
	if err != nil {
		t.Errorf("Run -> error %v", err)
	}
}

func TestProgram_EndsSessionWhenInputEnds(t *testing.T) {
	// Ctrl-D in a fresh line makes the terminal report EOF.
	err := runSession(t, &prog.Flags{}, "\x04")
	if err != nil {
		t.Errorf("Run -> error %v", err)
	}
}

func TestProgram_RecordsSessionEvents(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "events.db")
	err := runSession(t, &prog.Flags{Record: path}, "Up\nq\n")
	if err != nil {
		t.Fatalf("Run -> error %v", err)
	}

	r, err := rec.Open(path)
	if err != nil {
		t.Fatalf("Open -> error %v", err)
	}
	defer r.Close()
	got, err := r.Events()
	if err != nil {
		t.Fatalf("Events -> error %v", err)
	}
	want := []event.Event{event.K(event.Up), event.K('q')}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded events (-want +got):\n%s", diff)
	}
}

func TestProgram_ReplaysARecordedSession(t *testing.T) {
	testutil.Set(t, &replayInterval, testutil.Scaled(time.Millisecond))
	path := filepath.Join(testutil.TempDir(t), "events.db")
	recordKeys(t, path, event.K(event.Up), event.K('q'))

	err := runSession(t, &prog.Flags{Record: path, Replay: true}, "")
	if err != nil {
		t.Errorf("Run -> error %v", err)
	}
}

func TestProgram_ServesAControlSocket(t *testing.T) {
	sock := filepath.Join(testutil.TempDir(t), "ctl.sock")
	done := startSession(t, &prog.Flags{Ctl: sock}, "")
	conn := dialCtl(t, sock)
	defer conn.Close()
	ctx := context.Background()

	var mounted ctl.MountedResult
	if err := conn.Call(ctx, "mounted", nil, &mounted); err != nil {
		t.Fatalf("mounted -> error %v", err)
	}
	want := []string{compClock, compCounter, compStatus}
	if diff := cmp.Diff(want, mounted.IDs); diff != "" {
		t.Errorf("mounted ids (-want +got):\n%s", diff)
	}

	if err := conn.Call(ctx, "inject", ctl.InjectParams{Chord: "q"}, nil); err != nil {
		t.Fatalf("inject -> error %v", err)
	}
	if err := waitSession(t, done); err != nil {
		t.Errorf("Run -> error %v", err)
	}
}

// dialCtl dials the demo's control socket, retrying until the session has
// brought the server up.
func dialCtl(t *testing.T, sock string) *jsonrpc2.Conn {
	t.Helper()
	deadline := time.Now().Add(testutil.Scaled(5 * time.Second))
	for {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.PlainObjectCodec{})
			return jsonrpc2.NewConn(context.Background(), stream, noopHandler{})
		}
		if time.Now().After(deadline) {
			t.Fatalf("cannot dial %v: %v", sock, err)
			return nil
		}
		time.Sleep(testutil.Scaled(time.Millisecond))
	}
}

type noopHandler struct{}

func (noopHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

// recordKeys builds a recording database holding the given events.
func recordKeys(t *testing.T, path string, evs ...event.Event) {
	t.Helper()
	r, err := rec.Open(path)
	if err != nil {
		t.Fatalf("Open -> error %v", err)
	}
	defer r.Close()

	ch := make(chan event.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	p := r.Wrap(listen.ChanSource(ch))
	for {
		ev, err := p.Poll()
		if err != nil || ev == nil {
			return
		}
	}
}
