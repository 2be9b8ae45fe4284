//go:build unix

package listen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/testutil"
)

// Exercises LineSource against a real pty pair, the way an application
// would read commands from a terminal.
func TestLineSource_ReadsFromTTY(t *testing.T) {
	ptm, tty, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open pty: %v", err)
	}
	defer ptm.Close()
	defer tty.Close()

	src := LineSource(tty)
	fmt.Fprintln(ptm, "status")

	ctx, cancel := context.WithTimeout(
		context.Background(), testutil.Scaled(time.Second))
	defer cancel()
	ev, err := src.Poll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ev != (event.User{Payload: Line("status")}) {
		t.Errorf("got event %v, want user event %q", ev, "status")
	}
}
