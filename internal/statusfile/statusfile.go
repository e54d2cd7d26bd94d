// Package statusfile persists a small crash-safe JSON snapshot describing
// the running server, so an external health check can read it without
// talking to the process directly. Writes are atomic via renameio, so a
// reader never observes a half-written file.
package statusfile

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/renameio/v2"
)

// Snapshot is the JSON document written to the status file.
type Snapshot struct {
	PID            int       `json:"pid"`
	WorkerCount    int       `json:"worker_count"`
	MaxFDPerWorker int       `json:"max_fd_per_worker"`
	SoftFDLimit    int       `json:"soft_fd_limit"`
	Port           uint16    `json:"port"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Write atomically replaces path with snap's JSON encoding.
func Write(path string, snap Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return renameio.WriteFile(path, b, 0o644)
}

// Read loads a previously written Snapshot, for tests and the /stats
// handler in httpapp.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(b, &snap)
	return snap, err
}
