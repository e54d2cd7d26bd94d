//go:build linux

package reactor

import "sync/atomic"

// Acceptor non-blockingly accepts connections on the listening socket
// and routes each to a worker chosen by the Scheduler (spec.md §4.2). It
// runs on the caller's goroutine — the one that calls Server.Run.
type Acceptor struct {
	listenFD  int
	notifier  notifier
	wake      *wakeFD
	scheduler *Scheduler
	workers   []*Worker
	logger    Logger
	stopping  atomic.Bool
}

func newAcceptor(listenFD int, n notifier, wake *wakeFD, scheduler *Scheduler, workers []*Worker, logger Logger) *Acceptor {
	return &Acceptor{
		listenFD:  listenFD,
		notifier:  n,
		wake:      wake,
		scheduler: scheduler,
		workers:   workers,
		logger:    logger,
	}
}

// stop requests the accept loop to return at its next wake-up. Safe to
// call from a signal handler's goroutine.
func (a *Acceptor) stop() {
	a.stopping.Store(true)
	if a.wake != nil {
		_ = a.wake.signal()
	}
}

// run drives the accept loop until stop is called or a fatal error
// occurs. It never returns a non-nil error for transient accept
// failures (spec.md §7, §8 invariant 8); those are logged and the loop
// continues.
func (a *Acceptor) run() error {
	for {
		if a.stopping.Load() {
			return nil
		}

		events, err := a.notifier.wait(-1)
		switch {
		case err == errInterrupted:
			continue
		case err == ErrClosed:
			return nil
		case err != nil:
			return err
		}

		if a.stopping.Load() {
			return nil
		}

		for _, ev := range events {
			if a.wake != nil && ev.fd == a.wake.fd {
				a.wake.drain()
				continue
			}
			if ev.fd == a.listenFD {
				if err := a.drainAccepts(); err != nil {
					return err
				}
			}
		}
	}
}

// drainAccepts repeatedly accepts until accept() would block, per
// spec.md §4.2 and §8 invariant 8. It returns a non-nil error only for
// registration failure, which spec.md §4.2 calls fatal.
func (a *Acceptor) drainAccepts() error {
	for {
		connFD, err := acceptNonblocking(a.listenFD)
		if err != nil {
			if !isWouldBlock(err) {
				a.logger.Log(LogEntry{Level: LevelWarn, Category: "accept", Message: "accept failed", Err: err})
			}
			return nil
		}

		idx := a.scheduler.Next()
		w := a.workers[idx]
		if err := w.register(connFD); err != nil {
			a.logger.Log(LogEntry{Level: LevelError, Category: "accept", FD: connFD, WorkerID: w.id, Message: "fatal: failed to register accepted fd", Err: err})
			_ = closeFD(connFD)
			return err
		}
		a.logger.Log(LogEntry{Level: LevelDebug, Category: "accept", FD: connFD, WorkerID: w.id, Message: "accepted connection"})
	}
}
