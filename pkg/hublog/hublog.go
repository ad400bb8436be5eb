// Package hublog wraps zerolog the way the rest of the Data Hub expects to
// use it: import this package's Logger and add fields, don't reach for
// zerolog (or the stdlib log package) directly.
package hublog

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-level logger. Other packages add context fields to
// it (.With().Str(...)) rather than constructing their own.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// UseConsoleWriter switches Logger to zerolog's pretty console writer, for
// interactive CLI use. pretty is typically gated on isatty.IsTerminal by the
// caller (see cmd/datahub-snapshot).
func UseConsoleWriter(pretty bool) {
	if !pretty {
		Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
