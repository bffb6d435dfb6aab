// Package logging provides subsystem-scoped structured loggers for the
// harness. All packages log through slog with a shared, process-wide level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	level   = new(slog.LevelVar)
	output  io.Writer = os.Stderr
	handler slog.Handler
)

// SetLevel adjusts the minimum level for all loggers created by New,
// including ones already handed out.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects all subsequently created loggers to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	handler = nil
}

// New returns a logger tagged with the given subsystem name.
func New(subsystem string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if handler == nil {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("subsystem", subsystem)
}
