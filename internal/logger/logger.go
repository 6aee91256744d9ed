// Package logger writes progress of index builds, syncs and queries to
// stderr. Each operation opens a section named after the index; Debug and
// Info lines follow it only with --verbose. Warnings and per-record write
// failures are always printed because they mean the store and the corpus
// no longer agree.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for all log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, format, args...)
	}
}

// Section opens a phase such as "Build docs" or "Sync kb".
func Section(name string) {
	write(false, "\n=== %s ===\n", name)
}

// Debug prints pipeline detail in verbose mode.
func Debug(format string, args ...any) {
	write(false, "[DEBUG] "+format+"\n", args...)
}

// Info prints phase progress in verbose mode.
func Info(format string, args ...any) {
	write(false, "[INFO] "+format+"\n", args...)
}

// Warn prints a warning.
func Warn(format string, args ...any) {
	write(true, "[WARN] "+format+"\n", args...)
}

// Failure reports one record that op could not write to collection.
func Failure(op string, id int64, collection string, err error) {
	write(true, "[WARN] %s: id %d in %s: %v\n", op, id, collection, err)
}
