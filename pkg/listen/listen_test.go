package listen

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/testutil"
)

func startListener(t *testing.T, spec Spec) *Listener {
	t.Helper()
	l, err := Start(spec)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Stop() })
	return l
}

// pollOne polls until an event or error arrives, failing the test after a
// scaled second.
func pollOne(t *testing.T, l *Listener) (event.Event, error) {
	t.Helper()
	deadline := time.Now().Add(testutil.Scaled(time.Second))
	for time.Now().Before(deadline) {
		ev, err := l.Poll(testutil.Scaled(50 * time.Millisecond))
		if ev != nil || err != nil {
			return ev, err
		}
	}
	t.Fatal("nothing arrived in time")
	return nil, nil
}

func drainAll(l *Listener) {
	for {
		ev, err := l.Poll(NoWait)
		if ev == nil && err == nil {
			return
		}
	}
}

func nullSource() Poller {
	return PollerFunc(func() (event.Event, error) { return nil, nil })
}

func blockSource() AsyncPoller {
	return AsyncPollerFunc(func(ctx context.Context) (event.Event, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

// chanAsyncSource returns an AsyncPoller over ch that prefers delivering a
// buffered event over reporting cancellation, so drains are deterministic.
func chanAsyncSource(ch chan event.Event) AsyncPoller {
	return AsyncPollerFunc(func(ctx context.Context) (event.Event, error) {
		select {
		case ev := <-ch:
			return ev, nil
		default:
		}
		select {
		case ev := <-ch:
			return ev, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

var invalidSpecTests = []struct {
	name string
	spec Spec
}{
	{"negative tick", Spec{Tick: -time.Second}},
	{"negative poll timeout", Spec{PollTimeout: -time.Second}},
	{"nil port", Spec{Ports: []*Port{nil}}},
	{"port with nil poller", Spec{Ports: []*Port{NewPort(nil, 0, 1)}}},
	{"negative port interval", Spec{Ports: []*Port{NewPort(nullSource(), -1, 1)}}},
	{"negative port cap", Spec{Ports: []*Port{NewPort(nullSource(), 0, -1)}}},
	{"async port with nil poller", Spec{AsyncPorts: []*AsyncPort{NewAsyncPort(nil, 0, 1)}}},
	{"negative async port interval", Spec{AsyncPorts: []*AsyncPort{NewAsyncPort(blockSource(), -1, 1)}}},
	{"negative async port cap", Spec{AsyncPorts: []*AsyncPort{NewAsyncPort(blockSource(), 0, -1)}}},
}

func TestStart_RejectsInvalidSpecs(t *testing.T) {
	for _, test := range invalidSpecTests {
		l, err := Start(test.spec)
		if l != nil {
			l.Stop()
		}
		if !errors.Is(err, ErrCouldNotStart) {
			t.Errorf("%s: got error %v, want ErrCouldNotStart", test.name, err)
		}
	}
}

func TestPoll_DeliversPortEvents(t *testing.T) {
	ch := make(chan event.Event, 4)
	ch <- event.K('a')
	l := startListener(t, Spec{
		Ports: []*Port{NewPort(ChanSource(ch), testutil.Scaled(time.Millisecond), 4)},
	})
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != event.K('a') {
		t.Errorf("got event %v, want %v", ev, event.K('a'))
	}
}

func TestPoll_NoWaitReturnsImmediatelyWhenEmpty(t *testing.T) {
	l := startListener(t, Spec{})
	ev, err := l.Poll(NoWait)
	if ev != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", ev, err)
	}
}

func TestPoll_BoundedWaitTimesOut(t *testing.T) {
	l := startListener(t, Spec{})
	timeout := testutil.Scaled(30 * time.Millisecond)
	start := time.Now()
	ev, err := l.Poll(timeout)
	if ev != nil || err != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", ev, err)
	}
	if elapsed := time.Since(start); elapsed < timeout {
		t.Errorf("Poll returned after %v, want at least %v", elapsed, timeout)
	}
}

func TestPoll_ForeverBlocksUntilEventArrives(t *testing.T) {
	ch := make(chan event.Event, 1)
	l := startListener(t, Spec{
		Ports: []*Port{NewPort(ChanSource(ch), testutil.Scaled(time.Millisecond), 1)},
	})
	go func() {
		time.Sleep(testutil.Scaled(30 * time.Millisecond))
		ch <- event.K('z')
	}()
	ev, err := l.Poll(Forever)
	if err != nil {
		t.Fatal(err)
	}
	if ev != event.K('z') {
		t.Errorf("got event %v, want %v", ev, event.K('z'))
	}
}

func TestTick_EmittedAtConfiguredInterval(t *testing.T) {
	l := startListener(t, Spec{Tick: testutil.Scaled(10 * time.Millisecond)})
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != (event.Tick{}) {
		t.Errorf("got event %v, want a tick", ev)
	}
}

func TestPause_SuspendsPollingAndTicking(t *testing.T) {
	l := startListener(t, Spec{Tick: testutil.Scaled(20 * time.Millisecond)})
	l.Pause()
	// Let an in-flight cycle finish, then drain what it produced.
	time.Sleep(testutil.Scaled(50 * time.Millisecond))
	drainAll(l)

	time.Sleep(testutil.Scaled(100 * time.Millisecond))
	if ev, err := l.Poll(NoWait); ev != nil || err != nil {
		t.Errorf("paused listener produced (%v, %v)", ev, err)
	}

	l.Unpause()
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != (event.Tick{}) {
		t.Errorf("after unpause: got event %v, want a tick", ev)
	}
}

func TestPermanentError_RetiresPort(t *testing.T) {
	calls := 0
	src := PollerFunc(func() (event.Event, error) {
		calls++
		if calls == 1 {
			return nil, Permanent(errors.New("wedged"))
		}
		return event.K('x'), nil
	})
	l := startListener(t, Spec{
		Ports: []*Port{NewPort(src, testutil.Scaled(time.Millisecond), 4)},
	})
	_, err := pollOne(t, l)
	var pe *PollError
	if !errors.As(err, &pe) {
		t.Fatalf("got error %v, want a *PollError", err)
	}
	if !IsPermanent(err) {
		t.Errorf("forwarded error is not permanent")
	}
	// The port is gone; the source is never polled again.
	time.Sleep(testutil.Scaled(50 * time.Millisecond))
	if ev, err := l.Poll(NoWait); ev != nil || err != nil {
		t.Errorf("retired port produced (%v, %v)", ev, err)
	}
}

func TestTransientError_KeepsPortAlive(t *testing.T) {
	calls := 0
	src := PollerFunc(func() (event.Event, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("hiccup")
		case 2:
			return event.K('y'), nil
		default:
			return nil, nil
		}
	})
	l := startListener(t, Spec{
		Ports: []*Port{NewPort(src, testutil.Scaled(time.Millisecond), 4)},
	})
	_, err := pollOne(t, l)
	var pe *PollError
	if !errors.As(err, &pe) {
		t.Fatalf("got error %v, want a *PollError", err)
	}
	if IsPermanent(err) {
		t.Errorf("transient error reported as permanent")
	}
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != event.K('y') {
		t.Errorf("after transient error: got event %v, want %v", ev, event.K('y'))
	}
}

func TestPort_CapsEventsPerCycle(t *testing.T) {
	ch := make(chan event.Event, 5)
	for _, r := range "abcde" {
		ch <- event.K(r)
	}
	l := startListener(t, Spec{Ports: []*Port{NewPort(ChanSource(ch), time.Hour, 2)}})
	for _, want := range []event.Event{event.K('a'), event.K('b')} {
		ev, err := pollOne(t, l)
		if err != nil {
			t.Fatal(err)
		}
		if ev != want {
			t.Errorf("got event %v, want %v", ev, want)
		}
	}
	// The cycle cap is reached; the rest waits out the interval.
	time.Sleep(testutil.Scaled(50 * time.Millisecond))
	if ev, err := l.Poll(NoWait); ev != nil || err != nil {
		t.Errorf("got (%v, %v) before the interval elapsed", ev, err)
	}
}

func TestStop_SecondStopErrors(t *testing.T) {
	l, err := Start(Spec{})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("first stop: got error %v, want nil", err)
	}
	if err := l.Stop(); err != ErrCouldNotStop {
		t.Errorf("second stop: got error %v, want ErrCouldNotStop", err)
	}
}

func TestPoll_AfterWorkerPanicReportsDeath(t *testing.T) {
	calls := 0
	src := PollerFunc(func() (event.Event, error) {
		calls++
		if calls == 1 {
			return event.K('a'), nil
		}
		panic("source exploded")
	})
	l := startListener(t, Spec{
		Ports: []*Port{NewPort(src, testutil.Scaled(time.Millisecond), 4)},
	})
	// The event pushed before the death is still delivered.
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != event.K('a') {
		t.Errorf("got event %v, want %v", ev, event.K('a'))
	}
	_, err = l.Poll(testutil.Scaled(time.Second))
	if err != ErrListenerDied {
		t.Errorf("got error %v, want ErrListenerDied", err)
	}
}

func TestAsyncPort_DeliversAndDrainsWithinOneCycle(t *testing.T) {
	ch := make(chan event.Event, 4)
	ch <- event.K('a')
	ch <- event.K('b')
	ch <- event.K('c')
	l := startListener(t, Spec{
		AsyncPorts: []*AsyncPort{NewAsyncPort(chanAsyncSource(ch), time.Hour, 3)},
	})
	for _, want := range []event.Event{event.K('a'), event.K('b'), event.K('c')} {
		ev, err := pollOne(t, l)
		if err != nil {
			t.Fatal(err)
		}
		if ev != want {
			t.Errorf("got event %v, want %v", ev, want)
		}
	}
	// The cycle cap is reached; a late event waits out the interval.
	ch <- event.K('d')
	time.Sleep(testutil.Scaled(50 * time.Millisecond))
	if ev, err := l.Poll(NoWait); ev != nil || err != nil {
		t.Errorf("got (%v, %v) before the interval elapsed", ev, err)
	}
}

func TestAsyncTick_EmittedFromPoolAndPausable(t *testing.T) {
	l := startListener(t, Spec{
		Tick:      testutil.Scaled(10 * time.Millisecond),
		AsyncTick: true,
	})
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != (event.Tick{}) {
		t.Errorf("got event %v, want a tick", ev)
	}

	l.Pause()
	time.Sleep(testutil.Scaled(50 * time.Millisecond))
	drainAll(l)
	time.Sleep(testutil.Scaled(100 * time.Millisecond))
	if ev, err := l.Poll(NoWait); ev != nil || err != nil {
		t.Errorf("paused listener produced (%v, %v)", ev, err)
	}

	l.Unpause()
	if ev, _ := pollOne(t, l); ev != (event.Tick{}) {
		t.Errorf("after unpause: got event %v, want a tick", ev)
	}
}

func TestStart_SpecReusableAfterStop(t *testing.T) {
	ch := make(chan event.Event, 2)
	spec := Spec{
		Ports: []*Port{NewPort(ChanSource(ch), testutil.Scaled(time.Millisecond), 1)},
	}
	l, err := Start(spec)
	if err != nil {
		t.Fatal(err)
	}
	ch <- event.K('1')
	if ev, _ := pollOne(t, l); ev != event.K('1') {
		t.Errorf("got event %v, want %v", ev, event.K('1'))
	}
	testutil.Must(l.Stop())

	l, err = Start(spec)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Stop()
	ch <- event.K('2')
	if ev, _ := pollOne(t, l); ev != event.K('2') {
		t.Errorf("after restart: got event %v, want %v", ev, event.K('2'))
	}
}

func TestPollTimeout_Defaulted(t *testing.T) {
	l := startListener(t, Spec{})
	if got := l.PollTimeout(); got != defaultPollTimeout {
		t.Errorf("got poll timeout %v, want %v", got, defaultPollTimeout)
	}
	l = startListener(t, Spec{PollTimeout: 42 * time.Millisecond})
	if got := l.PollTimeout(); got != 42*time.Millisecond {
		t.Errorf("got poll timeout %v, want 42ms", got)
	}
}

func TestAsyncPort_CarriesLineSource(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	l := startListener(t, Spec{
		AsyncPorts: []*AsyncPort{
			NewAsyncPort(LineSource(r), testutil.Scaled(time.Millisecond), 1),
		},
	})
	go io.WriteString(w, "go\n")
	ev, err := pollOne(t, l)
	if err != nil {
		t.Fatal(err)
	}
	if ev != (event.User{Payload: Line("go")}) {
		t.Errorf("got event %v, want user event %q", ev, "go")
	}
}
