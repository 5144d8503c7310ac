// Copyright 2025 Certen Protocol
//
// Component loggers - zerolog sub-loggers, one per subsystem, all writing
// through a single process-wide output

package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewRootLogger returns the process-wide base logger, writing level,
// timestamp, and message fields to w in zerolog's structured JSON format.
// Pass os.Stdout in production; tests can pass io.Discard or a buffer.
func NewRootLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Component returns root scoped to one subsystem, e.g. "blockdriver" or
// "query". Every long-running subsystem (block driver, cost accountant,
// query API) derives its logger this way rather than sharing root
// unscoped, matching pkg/blockdriver.Application and pkg/costs.Accountant's
// existing zerolog.Logger fields.
func Component(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

// DefaultRootLogger returns a root logger at info level writing to stderr,
// for callers that have not loaded a configured log level yet.
func DefaultRootLogger() zerolog.Logger {
	return NewRootLogger(os.Stderr, zerolog.InfoLevel)
}
