// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment names accepted by Init.
const (
	Development = "development"
	Production  = "production"
)

// Opts controls logger output.
type Opts struct {
	Environment string
	Level       string    // debug, info, warn, error; empty uses the environment default
	Out         io.Writer // defaults to stderr
}

// Init replaces the global logger. Production writes JSON at info level,
// anything else writes human-readable console output at debug level.
func Init(opts Opts) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.DebugLevel
	if opts.Environment == Production {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		level = zerolog.InfoLevel
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger()
	}

	if opts.Level != "" {
		if parsed, err := zerolog.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}
	log.Logger = log.Logger.Level(level)
}

// Discard silences all logging. Used by tests and quiet CLI commands.
func Discard() {
	log.Logger = zerolog.Nop()
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }
