// Package storelog is the store's ambient logging surface. It keeps the
// teacher's small package-level call-site API (internal/debug:
// Enabled/SetVerbose/Logf) but backs it with a real structured logger
// (zerolog) instead of raw fmt.Fprintf, and adds an event log for the
// Manager's create/update/delete operations in the
// same spirit as the teacher's events.log.
package storelog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/contentvault/resourcestore/internal/restype"
)

var (
	mu          sync.Mutex
	verboseMode = os.Getenv("RSTORE_DEBUG") != ""
	logger      = defaultLogger()
)

func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// Enabled reports whether debug-level logging is active, either via
// RSTORE_DEBUG or a runtime SetVerbose(true) call.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return verboseMode
}

// SetVerbose toggles debug-level logging at runtime, the call-site a CLI
// entry point uses for a --verbose flag.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = verbose
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetOutput redirects where log records are written; tests point this
// at an in-memory buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Logf emits a debug-level message with printf-style formatting, only
// when Enabled().
func Logf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	logger.Debug().Msgf(format, args...)
}

// Event records one Manager operation against a resource: the
// structured counterpart to the teacher's LogEventWithContext, minus
// the flat-file append (the Manager has no project-root concept to
// locate a log file by).
func Event(op string, id restype.ResourceId, details string) {
	logger.Info().
		Str("op", op).
		Str("resource_id", id.String()).
		Str("details", details).
		Msg("store event")
}

// Error logs a failed operation at warn level with its cause.
func Error(op string, id restype.ResourceId, err error) {
	logger.Warn().
		Str("op", op).
		Str("resource_id", id.String()).
		Err(err).
		Msg("store operation failed")
}
