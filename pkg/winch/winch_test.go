//go:build unix

package winch

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/creack/pty"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/testutil"
)

func setupPTY(t *testing.T) (ptm, pts *os.File) {
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
	return ptm, pts
}

func TestSource_ReportsInitialSizeWithoutSignal(t *testing.T) {
	_, pts := setupPTY(t)
	s := New(pts)
	defer s.Close()

	ev, err := s.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll -> error %v", err)
	}
	if ev != (event.Resize{Rows: 24, Cols: 80}) {
		t.Errorf("Poll -> %v, want %v", ev, event.Resize{Rows: 24, Cols: 80})
	}
}

func TestSource_ReportsNewSizeOnSIGWINCH(t *testing.T) {
	ptm, pts := setupPTY(t)
	s := New(pts)
	defer s.Close()

	if _, err := s.Poll(context.Background()); err != nil {
		t.Fatalf("initial Poll -> error %v", err)
	}

	if err := pty.Setsize(ptm, &pty.Winsize{Rows: 30, Cols: 100}); err != nil {
		t.Fatalf("cannot resize pty: %v", err)
	}
	syscall.Kill(os.Getpid(), syscall.SIGWINCH)

	ctx, cancel := context.WithTimeout(context.Background(),
		testutil.Scaled(time.Second))
	defer cancel()
	ev, err := s.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll -> error %v", err)
	}
	if ev != (event.Resize{Rows: 30, Cols: 100}) {
		t.Errorf("Poll -> %v, want %v", ev, event.Resize{Rows: 30, Cols: 100})
	}
}

func TestSource_PollHonorsContext(t *testing.T) {
	_, pts := setupPTY(t)
	s := New(pts)
	defer s.Close()

	if _, err := s.Poll(context.Background()); err != nil {
		t.Fatalf("initial Poll -> error %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Poll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Poll with cancelled context -> %v, want %v", err, context.Canceled)
	}
}
