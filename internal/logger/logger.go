// Package logger provides verbose logging for the search engine and its
// bridge. When verbose mode is enabled via the --verbose flag, debug
// messages are printed to stderr to show what the engine is doing.
// Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// write holds the exclusive lock so concurrent messages never interleave.
func write(always bool, level, component, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && !always {
		return
	}
	if component != "" {
		fmt.Fprintf(output, "[%s] %s: %s\n", level, component, fmt.Sprintf(format, args...))
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "DEBUG", "", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(false, "WARN", "", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "ERROR", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Component tags every message with the name of the emitting package.
type Component string

// Debug prints a tagged message if verbose mode is enabled.
func (c Component) Debug(format string, args ...any) {
	write(false, "DEBUG", string(c), format, args...)
}

// Info prints a tagged informational message if verbose mode is enabled.
func (c Component) Info(format string, args ...any) {
	write(false, "INFO", string(c), format, args...)
}

// Warn prints a tagged warning if verbose mode is enabled.
func (c Component) Warn(format string, args ...any) {
	write(false, "WARN", string(c), format, args...)
}

// Error prints a tagged error regardless of verbose mode.
func (c Component) Error(format string, args ...any) {
	write(true, "ERROR", string(c), format, args...)
}

// Timed logs how long an operation took once the returned func is called.
//
//	defer log.Timed("get_mset")()
func (c Component) Timed(op string) func() {
	if !IsVerbose() {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.Debug("%s took %s", op, time.Since(start).Round(time.Microsecond))
	}
}
