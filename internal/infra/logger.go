package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger for the service. Development gets a
// console writer at debug level; LOG_LEVEL overrides the level when valid.
func NewLogger(appEnv string, level ...string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, level...)
}

func newLogger(out io.Writer, appEnv string, level ...string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if appEnv == "development" {
		lvl = zerolog.DebugLevel
	}
	if len(level) > 0 && strings.TrimSpace(level[0]) != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level[0]))); err == nil {
			lvl = parsed
		}
	}

	logger := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "neogen").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger
}

// Logger aliases the zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the third-party module
// directly.
type Logger = zerolog.Logger

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	l := zerolog.Nop()
	return &l
}
