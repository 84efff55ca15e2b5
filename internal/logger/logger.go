// Package logger prints pipeline progress to stderr. Debug, Info and
// Section output is gated behind the --verbose flag; warnings always
// print so degraded runs (skipped items, unreachable stores) stay
// visible in quiet mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	enabled bool
	out     io.Writer = os.Stderr
)

// SetVerbose toggles verbose output.
func SetVerbose(on bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetOutput redirects log output. Tests capture it with a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// logf writes one prefixed line. gated lines are dropped unless
// verbose output is on.
func logf(gated bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !enabled {
		return
	}
	fmt.Fprintf(out, prefix+format+"\n", args...)
}

// Debug prints a verbose-only diagnostic line.
func Debug(format string, args ...any) {
	logf(true, "debug: ", format, args...)
}

// Info prints a verbose-only progress line.
func Info(format string, args ...any) {
	logf(true, "info: ", format, args...)
}

// Warn prints a warning. Not gated.
func Warn(format string, args ...any) {
	logf(false, "warning: ", format, args...)
}

// Section prints a verbose-only banner marking a pipeline stage.
func Section(name string) {
	logf(true, "", "\n==> %s", name)
}
