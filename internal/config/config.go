// Package config loads reactord's runtime configuration from a TOML file
// with command-line flag overrides, producing a reactor.Config plus the
// supplemented fields (doc_root, status_file, scheduler_policy) that the
// core package itself has no business knowing about.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/elvinlabs/reactord/reactor"
)

// fileConfig mirrors the TOML file shape. Field names match spec.md §6's
// four named options plus the supplemented ones documented in SPEC_FULL.md.
type fileConfig struct {
	Port                 uint16 `toml:"port"`
	EnableLinger         bool   `toml:"enable_linger"`
	EnableThreadAffinity bool   `toml:"enable_thread_affinity"`
	KeepAliveTimeout     uint32 `toml:"keep_alive_timeout"`
	WorkerCount          int    `toml:"worker_count"`
	SchedulerPolicy      string `toml:"scheduler_policy"`
	DocRoot              string `toml:"doc_root"`
	StatusFile           string `toml:"status_file"`
}

// Config is the fully resolved configuration: a reactor.Config plus the
// fields needed to wire httpapp and internal/statusfile.
type Config struct {
	Reactor    reactor.Config
	DocRoot    string
	StatusFile string
}

// Load reads path (if non-empty and present) as TOML, then applies flag
// overrides from args, returning the merged Config. A missing file is not
// an error: flags and defaults alone are a valid configuration.
func Load(path string, args []string) (Config, error) {
	var fc fileConfig
	fc.KeepAliveTimeout = 60
	fc.SchedulerPolicy = "round-robin"
	fc.StatusFile = "/run/reactord/status.json"

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &fc); err != nil {
				return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	fs := flag.NewFlagSet("reactord", flag.ContinueOnError)
	fs.String("config", "", "path to a TOML config file (handled by the caller)")
	port := fs.Uint("port", uint(fc.Port), "TCP port to listen on")
	linger := fs.Bool("enable-linger", fc.EnableLinger, "enable SO_LINGER on accepted sockets")
	affinity := fs.Bool("enable-thread-affinity", fc.EnableThreadAffinity, "pin each worker goroutine to its own CPU")
	keepAlive := fs.Uint("keep-alive-timeout", uint(fc.KeepAliveTimeout), "keep-alive timeout in ticks")
	workers := fs.Int("worker-count", fc.WorkerCount, "worker count (0 = online CPU count)")
	policy := fs.String("scheduler-policy", fc.SchedulerPolicy, `"round-robin" or "waterwheel"`)
	docRoot := fs.String("doc-root", fc.DocRoot, "static file root served by httpapp")
	statusFile := fs.String("status-file", fc.StatusFile, "path for the atomic status snapshot")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	var schedPolicy reactor.SchedulerPolicy
	switch *policy {
	case "round-robin", "":
		schedPolicy = reactor.RoundRobin
	case "waterwheel":
		schedPolicy = reactor.Waterwheel
	default:
		return Config{}, fmt.Errorf("config: unknown scheduler_policy %q", *policy)
	}

	return Config{
		Reactor: reactor.Config{
			Port:                 uint16(*port),
			EnableLinger:         *linger,
			EnableThreadAffinity: *affinity,
			KeepAliveTimeout:     uint32(*keepAlive),
			SchedulerPolicy:      schedPolicy,
			WorkerCount:          *workers,
		},
		DocRoot:    *docRoot,
		StatusFile: *statusFile,
	}, nil
}
