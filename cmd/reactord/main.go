// Command reactord is the reference server binary: it wires
// internal/config, internal/applog, internal/statusfile, httpapp, and the
// reactor core together, matching the init/run/shutdown sequence of
// spec.md §4.4 end to end.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/joeycumines/logiface"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/elvinlabs/reactord/httpapp"
	"github.com/elvinlabs/reactord/internal/applog"
	"github.com/elvinlabs/reactord/internal/config"
	"github.com/elvinlabs/reactord/internal/statusfile"
	"github.com/elvinlabs/reactord/reactor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "reactord:", err)
		os.Exit(1)
	}
}

func run() error {
	// Correct GOMAXPROCS/GOMEMLIMIT for cgroup quotas before anything
	// below computes worker_count from runtime.NumCPU() (spec.md §4.4
	// step 1) or retains response buffers under a GC ceiling.
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintln(os.Stderr, "reactord: automaxprocs:", err)
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(memlimit.WithRatio(0.9)); err != nil {
		fmt.Fprintln(os.Stderr, "reactord: automemlimit:", err)
	}

	var configPath string
	fs := flag.NewFlagSet("reactord", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "path to a TOML config file")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(configPath, os.Args[1:])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := applog.New(os.Stderr, logiface.LevelInformational)
	log.Info().
		Int("port", int(cfg.Reactor.Port)).
		Str("doc_root", cfg.DocRoot).
		Str("status_file", cfg.StatusFile).
		Log("starting reactord")

	handler := httpapp.NewHandler()
	handler.Router.Handle("GET", "/stats", httpapp.StatsHandler(cfg.StatusFile))
	if cfg.DocRoot != "" {
		handler.Router.NotFound = httpapp.StaticHandler(cfg.DocRoot)
	}

	srv, err := reactor.NewServer(cfg.Reactor, handler)
	if err != nil {
		return fmt.Errorf("starting reactor server: %w", err)
	}

	if err := statusfile.Write(cfg.StatusFile, statusfile.Snapshot{
		PID:            os.Getpid(),
		WorkerCount:    srv.WorkerCount(),
		MaxFDPerWorker: srv.MaxFDPerWorker(),
		SoftFDLimit:    srv.SoftFDLimit(),
		Port:           cfg.Reactor.Port,
		StartedAt:      startTime,
		UpdatedAt:      startTime,
	}); err != nil {
		log.Warning().Err(err).Log("failed to write initial status file")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Log("shutdown signal received")
		_ = srv.Shutdown()
	}()

	runErr := srv.Run()

	if err := statusfile.Write(cfg.StatusFile, statusfile.Snapshot{
		PID:            os.Getpid(),
		WorkerCount:    srv.WorkerCount(),
		MaxFDPerWorker: srv.MaxFDPerWorker(),
		SoftFDLimit:    srv.SoftFDLimit(),
		Port:           cfg.Reactor.Port,
		StartedAt:      startTime,
		UpdatedAt:      startTime,
	}); err != nil {
		log.Warning().Err(err).Log("failed to write final status file")
	}

	if runErr != nil {
		return fmt.Errorf("server run: %w", runErr)
	}
	log.Info().Log("reactord exited cleanly")
	return nil
}

// startTime is stamped once at process start; used for the status
// snapshot's started_at field.
var startTime = time.Now()
