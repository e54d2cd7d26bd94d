//go:build linux

package reactor

import (
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
)

const maxEventsPerWait = 256

// Server owns the listening socket, the worker pool, the shared slot
// table, and configuration (spec.md §3, "Server"). Construct one with
// NewServer, then call Run on the goroutine that should host the
// accept loop, and Shutdown to tear everything down.
type Server struct {
	cfg     *Config
	handler RequestHandler

	listenFD int
	acceptor *Acceptor
	wake     *wakeFD

	slots          *SlotTable
	workers        []*Worker
	scheduler      *Scheduler
	workerCount    int
	maxFDPerWorker int
	softLimit      int

	logger Logger

	wg           sync.WaitGroup
	running      atomic.Bool
	started      atomic.Bool
	shutdownOnce sync.Once
}

// NewServer implements the init sequence of spec.md §4.4: computes
// worker_count and the fd budget, allocates the slot table, sets up
// signal/stdin housekeeping, opens the listening socket, and spawns
// every worker goroutine (already running, pinned if configured) before
// returning. Any failure here is fatal, per spec.md §7.
func NewServer(cfg Config, handler RequestHandler) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	workerCount := cfg.WorkerCount
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
		if workerCount < 2 {
			workerCount = 2
		}
	}

	softLimit, err := raiseFDLimit()
	if err != nil {
		return nil, err
	}

	slots := newSlotTable(softLimit)
	maxFDPerWorker := softLimit / workerCount

	logger.Log(LogEntry{Level: LevelInfo, Category: "init", WorkerCount: workerCount, MaxFDPerWorker: maxFDPerWorker, Message: "fd budget computed"})

	signal.Ignore(syscall.SIGPIPE)
	_ = os.Stdin.Close()

	backlog := workerCount * maxFDPerWorker
	listenFD, err := listenSocket(&cfg, backlog)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:            &cfg,
		handler:        handler,
		listenFD:       listenFD,
		slots:          slots,
		workerCount:    workerCount,
		maxFDPerWorker: maxFDPerWorker,
		softLimit:      softLimit,
		scheduler:      newScheduler(cfg.SchedulerPolicy, workerCount),
		logger:         logger,
	}

	// Workers are created in reverse index order (spec.md §4.4 step 7);
	// the order has no functional effect here but is kept for fidelity.
	s.workers = make([]*Worker, workerCount)
	for i := workerCount - 1; i >= 0; i-- {
		n, err := newEpollNotifier(maxEventsPerWait)
		if err != nil {
			s.closeWorkerNotifiers()
			_ = closeFD(listenFD)
			return nil, err
		}
		w, err := newWorker(i, n, slots, handler, &cfg, maxFDPerWorker)
		if err != nil {
			_ = n.close()
			s.closeWorkerNotifiers()
			_ = closeFD(listenFD)
			return nil, err
		}
		s.workers[i] = w
	}

	acceptNotifier, err := newEpollNotifier(maxEventsPerWait)
	if err != nil {
		s.closeWorkerNotifiers()
		_ = closeFD(listenFD)
		return nil, err
	}
	if err := acceptNotifier.add(listenFD, evRead, false); err != nil {
		s.closeWorkerNotifiers()
		_ = acceptNotifier.close()
		_ = closeFD(listenFD)
		return nil, err
	}

	wake, err := newWakeFD()
	if err != nil {
		s.closeWorkerNotifiers()
		_ = acceptNotifier.close()
		_ = closeFD(listenFD)
		return nil, err
	}
	if err := acceptNotifier.add(wake.fd, evRead, false); err != nil {
		s.closeWorkerNotifiers()
		_ = acceptNotifier.close()
		_ = wake.close()
		_ = closeFD(listenFD)
		return nil, err
	}
	s.wake = wake

	s.acceptor = newAcceptor(listenFD, acceptNotifier, wake, s.scheduler, s.workers, logger)

	for _, w := range s.workers {
		w := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := w.run(); err != nil {
				logger.Log(LogEntry{Level: LevelError, Category: "worker", WorkerID: w.id, Message: "worker exited with error", Err: err})
			}
		}()
	}

	logger.Log(LogEntry{Level: LevelInfo, Category: "init", Message: "server initialized"})
	return s, nil
}

func (s *Server) closeWorkerNotifiers() {
	for _, w := range s.workers {
		if w != nil {
			_ = w.notifier.close()
			if w.wake != nil {
				_ = w.wake.close()
			}
		}
	}
}

// stopWorkers signals every worker's wake eventfd so each returns from a
// (possibly indefinite) notifier.wait within one wake-up, per spec.md §8
// invariant 10 and S5. Closing a worker's notifier fd from this goroutine
// does not by itself unblock a thread already parked in epoll_wait on
// it, so shutdown must wake workers before joining them.
func (s *Server) stopWorkers() {
	for _, w := range s.workers {
		if w != nil {
			w.stop()
		}
	}
}

// WorkerCount returns the number of workers in the pool.
func (s *Server) WorkerCount() int { return s.workerCount }

// MaxFDPerWorker returns the per-worker fd quota.
func (s *Server) MaxFDPerWorker() int { return s.maxFDPerWorker }

// SoftFDLimit returns the final soft RLIMIT_NOFILE applied at init.
func (s *Server) SoftFDLimit() int { return s.softLimit }

// Run drives the acceptor loop on the calling goroutine until Shutdown
// requests it to stop or a fatal error occurs (spec.md §4.4, "Run").
func (s *Server) Run() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.started.Store(true)
	defer s.running.Store(false)
	return s.acceptor.run()
}

// Shutdown implements spec.md §4.4's shutdown sequence: wake every
// worker (so a worker idling in an indefinite notifier.wait returns
// within one wake-up instead of depending on notifier.close to unblock
// it), join every worker, stop the acceptor, close every notifier and
// the listening socket, then release the slot table. It is idempotent.
// Every worker goroutine is already running by the time NewServer
// returns, so this always tears them down, even if Run was never
// called; it additionally reports ErrNotRunning in that case, since the
// acceptor itself never got to run.
func (s *Server) Shutdown() error {
	wasStarted := s.started.Load()
	s.shutdownOnce.Do(func() {
		s.acceptor.stop()

		s.stopWorkers()
		s.wg.Wait()

		s.closeWorkerNotifiers()
		_ = s.acceptor.notifier.close()
		if s.wake != nil {
			_ = s.wake.close()
		}
		_ = closeFD(s.listenFD)

		s.slots = nil

		s.logger.Log(LogEntry{Level: LevelInfo, Category: "shutdown", Message: "server shut down cleanly"})
	})
	if !wasStarted {
		return ErrNotRunning
	}
	return nil
}
