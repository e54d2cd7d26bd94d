// Package applog wires the application-level logger used by cmd/reactord
// and internal/config: a logiface.Logger backed by the stumpy JSON writer.
// It is deliberately separate from reactor.Logger, the zero-allocation
// hot-path logger consulted on every worker tick (see reactor/logging.go);
// this tier only runs at startup, shutdown, and on fatal init errors, where
// logiface's richer field-building API is worth its cost.
package applog

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// New builds a logiface.Logger writing newline-delimited JSON to w (os.Stderr
// if w is nil), at the given minimum level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[*stumpy.Event] {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}
