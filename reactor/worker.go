//go:build linux

package reactor

import (
	"runtime"
	"sync/atomic"
)

// Worker is one of the server's fixed pool of reactors (spec.md §3, §4.3).
// It owns a readiness notifier, a local death_time tick counter, and a
// death ring; it shares the server-wide SlotTable but only ever touches
// slots whose fds it registered itself, so no locking is needed in
// steady state.
type Worker struct {
	id       int
	notifier notifier
	wake     *wakeFD
	stopping atomic.Bool
	deathTime int64
	ring     *deathRing
	slots    *SlotTable
	handler  RequestHandler
	keepAliveTimeout int64
	logger   Logger
	cpu      int
	pin      bool
}

// newWorker constructs a Worker and registers its wake eventfd (see
// [Worker.stop]) on n, level-triggered, alongside whatever fds the
// acceptor later hands it.
func newWorker(id int, n notifier, slots *SlotTable, handler RequestHandler, cfg *Config, quota int) (*Worker, error) {
	wake, err := newWakeFD()
	if err != nil {
		return nil, err
	}
	if err := n.add(wake.fd, evRead, false); err != nil {
		_ = wake.close()
		return nil, err
	}
	return &Worker{
		id:               id,
		notifier:         n,
		wake:             wake,
		ring:             newDeathRing(quota),
		slots:            slots,
		handler:          handler,
		keepAliveTimeout: int64(cfg.KeepAliveTimeout),
		logger:           cfg.logger(),
		cpu:              id,
		pin:              cfg.EnableThreadAffinity,
	}, nil
}

// register adds a freshly accepted fd to this worker's notifier, edge
// triggered for read, peer-hangup, and error (spec.md §4.2). Called by
// the Acceptor before fd is ever handed to the worker's own goroutine;
// safe because the fd is not yet registered anywhere else.
func (w *Worker) register(fd int) error {
	if fd < 0 || fd >= w.slots.Len() {
		return ErrFDOutOfRange
	}
	return w.notifier.add(fd, evRead|evHangup|evError, true)
}

// stop requests the worker's run loop to return at its next wake-up.
// Safe to call from another goroutine while run is blocked in wait:
// closing the notifier's fd does not by itself interrupt a thread
// already parked in epoll_wait on it, so shutdown signals the worker's
// own wake eventfd instead (same self-pipe idiom as Acceptor.stop).
func (w *Worker) stop() {
	w.stopping.Store(true)
	if w.wake != nil {
		_ = w.wake.signal()
	}
}

// run drives the worker's main loop until the notifier is closed (an
// orderly shutdown, spec.md §4.4) or a non-recoverable error occurs. It
// pins the calling goroutine to an OS thread (and optionally a specific
// CPU) for its entire lifetime, matching the teacher's own ioLoop
// thread-affinity pattern.
func (w *Worker) run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.pin {
		if err := pinCurrentThread(w.cpu); err != nil {
			w.logger.Log(LogEntry{Level: LevelWarn, Category: "worker", WorkerID: w.id, Message: "failed to pin thread to cpu", Err: err})
		}
	}

	for {
		if w.stopping.Load() {
			return nil
		}

		timeoutMs := -1
		if !w.ring.empty() {
			timeoutMs = int(tickInterval.Milliseconds())
		}

		events, err := w.notifier.wait(timeoutMs)
		switch {
		case err == errInterrupted:
			w.logger.Log(LogEntry{Level: LevelDebug, Category: "worker", WorkerID: w.id, Message: "wait interrupted by signal"})
			continue
		case err == ErrClosed:
			w.logger.Log(LogEntry{Level: LevelInfo, Category: "worker", WorkerID: w.id, Message: "notifier closed, exiting"})
			return nil
		case err != nil:
			w.logger.Log(LogEntry{Level: LevelError, Category: "worker", WorkerID: w.id, Message: "notifier wait failed", Err: err})
			return err
		}

		if w.stopping.Load() {
			return nil
		}

		if len(events) == 0 {
			w.ageKeepAlives()
			continue
		}

		for _, ev := range events {
			if w.wake != nil && ev.fd == w.wake.fd {
				w.wake.drain()
				continue
			}
			w.dispatch(ev)
		}
	}
}

// ageKeepAlives implements the timeout branch of spec.md §4.3 case 3:
// advance death_time by one tick, then pop and close every ring head
// whose deadline has passed. O(expired), not O(ring size).
func (w *Worker) ageKeepAlives() {
	w.deathTime++
	for {
		fd, ok := w.ring.peek()
		if !ok {
			return
		}
		slot := w.slots.Get(fd)
		if slot.TimeToDie > w.deathTime {
			return
		}
		w.ring.pop()
		if slot.Alive {
			slot.Alive = false
			if err := closeFD(fd); err != nil {
				w.logger.Log(LogEntry{Level: LevelWarn, Category: "worker", WorkerID: w.id, FD: fd, Message: "close failed on keep-alive expiry", Err: err})
			}
		}
	}
}

// dispatch implements spec.md §4.3 case 4 for a single ready event.
func (w *Worker) dispatch(ev readyEvent) {
	slot := w.slots.Get(ev.fd)

	if ev.events&(evHangup|evError) != 0 {
		if err := w.notifier.remove(ev.fd); err != nil {
			w.logger.Log(LogEntry{Level: LevelWarn, Category: "worker", WorkerID: w.id, FD: ev.fd, Message: "deregister failed on hangup/error", Err: err})
		}
		slot.Alive = false
		if err := closeFD(ev.fd); err != nil {
			w.logger.Log(LogEntry{Level: LevelWarn, Category: "worker", WorkerID: w.id, FD: ev.fd, Message: "close failed on hangup/error", Err: err})
		}
		return
	}

	wasAlive := slot.Alive
	if !wasAlive {
		slot.reset(ev.fd)
		w.handler.Reset(slot)
	}

	w.handler.Handle(slot)

	if slot.IsKeepAlive {
		slot.TimeToDie = w.deathTime + w.keepAliveTimeout
		if !wasAlive {
			w.ring.push(ev.fd)
			slot.Alive = true
		}
		return
	}

	slot.Alive = false
	if err := closeFD(ev.fd); err != nil {
		w.logger.Log(LogEntry{Level: LevelWarn, Category: "worker", WorkerID: w.id, FD: ev.fd, Message: "close failed", Err: err})
	}
	// The fd is deliberately left in the death ring if it was already
	// there (wasAlive==true): a non-keep-alive response on a
	// previously-alive connection becomes a stale entry, cleaned up
	// benignly by the next ageKeepAlives pass once its old deadline
	// passes (spec.md §9, "Death ring stale entries").
}
