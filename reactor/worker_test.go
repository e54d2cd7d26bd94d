package reactor

import (
	"testing"

	"golang.org/x/sys/unix"
)

// fakeNotifier is a no-op notifier sufficient for exercising Worker's
// dispatch and ageing logic directly, without a real epoll instance.
type fakeNotifier struct {
	removed []int
}

func (f *fakeNotifier) add(fd int, events ioEvent, edgeTriggered bool) error { return nil }
func (f *fakeNotifier) remove(fd int) error {
	f.removed = append(f.removed, fd)
	return nil
}
func (f *fakeNotifier) wait(timeoutMs int) ([]readyEvent, error) { return nil, nil }
func (f *fakeNotifier) close() error                             { return nil }

// stubHandler lets tests control IsKeepAlive and observe Reset/Handle calls.
type stubHandler struct {
	keepAlive  bool
	handled    int
	resetCalls int
}

func (h *stubHandler) Handle(slot *Slot) {
	h.handled++
	slot.IsKeepAlive = h.keepAlive
}

func (h *stubHandler) Reset(slot *Slot) {
	h.resetCalls++
}

func socketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func newTestWorker(t *testing.T, handler RequestHandler, keepAliveTimeout int64) (*Worker, *fakeNotifier) {
	t.Helper()
	fn := &fakeNotifier{}
	slots := newSlotTable(256)
	w := &Worker{
		id:               0,
		notifier:         fn,
		ring:             newDeathRing(256),
		slots:            slots,
		handler:          handler,
		keepAliveTimeout: keepAliveTimeout,
		logger:           NewNoOpLogger(),
	}
	return w, fn
}

func TestWorkerDispatchNonKeepAliveClosesImmediately(t *testing.T) {
	a, b := socketpair(t)
	_ = b
	h := &stubHandler{keepAlive: false}
	w, _ := newTestWorker(t, h, 5)

	w.dispatch(readyEvent{fd: a, events: evRead})

	slot := w.slots.Get(a)
	if slot.Alive {
		t.Fatal("slot should not be alive after a non-keep-alive response")
	}
	if !w.ring.empty() {
		t.Fatal("death ring should stay empty for a connection that was never keep-alive")
	}
	if h.handled != 1 {
		t.Fatalf("Handle called %d times, want 1", h.handled)
	}
	if h.resetCalls != 1 {
		t.Fatalf("Reset called %d times, want 1 (slot was not alive)", h.resetCalls)
	}
}

func TestWorkerDispatchKeepAliveEntersRingOnce(t *testing.T) {
	a, _ := socketpair(t)
	h := &stubHandler{keepAlive: true}
	w, _ := newTestWorker(t, h, 5)

	w.dispatch(readyEvent{fd: a, events: evRead})

	slot := w.slots.Get(a)
	if !slot.Alive {
		t.Fatal("slot should be alive after a keep-alive response")
	}
	if slot.TimeToDie != w.deathTime+5 {
		t.Fatalf("TimeToDie = %d, want %d", slot.TimeToDie, w.deathTime+5)
	}
	if w.ring.population != 1 {
		t.Fatalf("ring population = %d, want 1", w.ring.population)
	}

	// A second keep-alive request on the same, already-alive fd must
	// update TimeToDie in place, not duplicate the ring entry.
	w.deathTime = 3
	w.dispatch(readyEvent{fd: a, events: evRead})
	if w.ring.population != 1 {
		t.Fatalf("ring population after second keep-alive = %d, want 1 (no duplicate entry)", w.ring.population)
	}
	if slot.TimeToDie != 3+5 {
		t.Fatalf("TimeToDie not updated in place: got %d, want %d", slot.TimeToDie, 3+5)
	}
	if h.resetCalls != 1 {
		t.Fatalf("Reset called %d times, want 1 (second dispatch reused the already-alive slot)", h.resetCalls)
	}
}

func TestWorkerDispatchHangupClosesAndDeregisters(t *testing.T) {
	a, _ := socketpair(t)
	h := &stubHandler{}
	w, fn := newTestWorker(t, h, 5)

	w.dispatch(readyEvent{fd: a, events: evHangup})

	slot := w.slots.Get(a)
	if slot.Alive {
		t.Fatal("slot should not be alive after hangup")
	}
	if h.handled != 0 {
		t.Fatal("Handle must not be called on hangup/error events")
	}
	if len(fn.removed) != 1 || fn.removed[0] != a {
		t.Fatalf("expected fd %d to be deregistered, got %v", a, fn.removed)
	}
}

func TestWorkerAgeKeepAlivesExpiresInFIFOOrder(t *testing.T) {
	a, _ := socketpair(t)
	c, _ := socketpair(t)
	h := &stubHandler{keepAlive: true}
	w, _ := newTestWorker(t, h, 2)

	w.dispatch(readyEvent{fd: a, events: evRead})
	w.dispatch(readyEvent{fd: c, events: evRead})

	if w.ring.population != 2 {
		t.Fatalf("ring population = %d, want 2", w.ring.population)
	}

	// Both connections were admitted with TimeToDie = 0+2 = 2.
	w.ageKeepAlives() // death_time -> 1, nothing expired yet
	if w.slots.Get(a).Alive == false {
		t.Fatal("connection a expired too early")
	}

	w.ageKeepAlives() // death_time -> 2, both expire now
	if w.slots.Get(a).Alive {
		t.Fatal("connection a should have expired at death_time==TimeToDie")
	}
	if w.slots.Get(c).Alive {
		t.Fatal("connection c should have expired at death_time==TimeToDie")
	}
	if !w.ring.empty() {
		t.Fatalf("ring should be drained of expired entries, population=%d", w.ring.population)
	}
}

func TestWorkerAgeKeepAlivesStopsAtFirstUnexpiredHead(t *testing.T) {
	a, _ := socketpair(t)
	c, _ := socketpair(t)
	h := &stubHandler{keepAlive: true}
	w, _ := newTestWorker(t, h, 10)

	w.dispatch(readyEvent{fd: a, events: evRead}) // TimeToDie = 10

	// Extend a's deadline in place (simulating a second keep-alive
	// request) so it sits ahead of c with a later deadline.
	w.deathTime = 5
	w.dispatch(readyEvent{fd: a, events: evRead}) // TimeToDie = 15

	w.dispatch(readyEvent{fd: c, events: evRead}) // TimeToDie = 5+10 = 15, same worker clock

	// Advance far enough that c's deadline has passed but the scan must
	// still stop at a (the head), since a's deadline is also unexpired
	// relative to a *much* smaller clock in this constructed scenario.
	w.deathTime = 6
	w.ageKeepAlives()
	if w.ring.population != 2 {
		t.Fatalf("population = %d, want 2 (head not yet expired, scan must stop)", w.ring.population)
	}
}
