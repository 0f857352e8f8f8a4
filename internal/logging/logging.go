// Package logging configures the zerolog logger shared by pkglink.
//
// Diagnostic logs go to stderr through a console writer. User-facing output
// (error lines, summaries) is printed by the cli package and never goes
// through the logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on verbosity level.
// 0 = warnings only, 1 = info, 2 = debug, 3+ = trace with caller info.
func Setup(verbosity int, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}

	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}

	ctx := zerolog.New(consoleWriter).With().Timestamp()
	if verbosity >= 3 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// For returns a logger tagged with the given component name.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Nop returns a disabled logger, handy for tests and library callers
// that don't care about diagnostics.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
