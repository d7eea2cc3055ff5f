// Package debug provides conditional debug logging for tasktree.
//
// Debug logging is enabled by setting the TASKTREE_DEBUG environment variable:
//
//	TASKTREE_DEBUG=1 tasktree stats cv
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	import "github.com/vanderheijden86/tasktree/pkg/debug"
//
//	func build() {
//	    defer debug.LogEnterExit("build")()
//	    debug.Log("indexed %d tasks", n)
//	}
package debug

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// enabled is true when TASKTREE_DEBUG env var is set
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TASKTREE_DEBUG") != "" {
		enabled = true
		logger = newLogger(os.Stderr)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000000",
		Prefix:          "TASKTREE_DEBUG",
		Level:           log.DebugLevel,
	})
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output. Mostly useful in tests.
func SetOutput(w io.Writer) {
	logger = newLogger(w)
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...))
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Debug(name, "took", d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...))
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("LoadDomain")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Debug("-> " + name)
	start := time.Now()
	return func() {
		logger.Debug("<- "+name, "elapsed", time.Since(start))
	}
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if !enabled {
		return
	}
	logger.Debug(fmt.Sprintf("=== %s ===", name))
}
