package log

import (
	"io"

	"github.com/rs/zerolog"

	logAdapter "github.com/ngt-labs/coughdx/internal/adapters/log"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Logger provides structured logging capabilities.
type Logger = ports.Logger

// Field represents a key-value pair for structured logging.
type Field = ports.Field

// Field constructors.
var (
	String   = ports.String
	Int      = ports.Int
	Bool     = ports.Bool
	Duration = ports.Duration
	Err      = ports.Err
	Any      = ports.Any
)

// NewConsoleLogger returns a human-readable zerolog Logger writing to w.
// Unknown levels fall back to info.
func NewConsoleLogger(w io.Writer, level string) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logAdapter.NewConsoleLogger(w, level))
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logger)
}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger {
	return logAdapter.NewNoopLogger()
}
