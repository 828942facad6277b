// Package logger builds the zerolog loggers every binary uses.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup configures the global level and returns a stdout logger.
// format "pretty" gives console output; anything else is JSON.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New builds a logger on out. Unknown or empty levels fall back to info.
func New(out io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "pretty") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zerolog.SetGlobalLevel(parseLevel(level))

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", "handbook").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
