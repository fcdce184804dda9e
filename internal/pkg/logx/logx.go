/*
Package logx wraps zerolog for the folio server.

It sets up the process-wide logger (human-readable console output while developing,
JSON lines otherwise) and exposes small helpers so call sites can log with key/value
pairs without touching zerolog's builder API directly.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger initializes the global zerolog instance.
// It configures the log level and output format based on the isDevelopment parameter:
// Development: Debug level, colored ConsoleWriter on stderr.
// Production: Info level, JSON lines on stdout.
// All logs include a Unix timestamp and caller information.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
// Long-lived services keep one and log through
// zerolog's builder API directly.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// pairs validates that fields holds key/value pairs.
// If the count is odd, it logs a warning and returns nil to prevent zerolog from panicking.
func pairs(level string, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}

	Logger().Warn().
		Int("fields_count", len(fields)).
		Str("log_level", level).
		Msgf("logx.%s called with an odd number of fields, dropping them: %v", level, fields)
	return nil
}

// Debug records a log message at the Debug level.
// It accepts a message string and an optional key/value field list.
func Debug(msg string, fields ...any) {
	Logger().Debug().Fields(pairs("Debug", fields)).CallerSkipFrame(1).Msg(msg)
}

// Info records a log message at the Info level.
// It accepts a message string and an optional key/value field list.
func Info(msg string, fields ...any) {
	Logger().Info().Fields(pairs("Info", fields)).CallerSkipFrame(1).Msg(msg)
}

// Warn records a log message at the Warn level.
// It accepts a message string and an optional key/value field list.
func Warn(msg string, fields ...any) {
	Logger().Warn().Fields(pairs("Warn", fields)).CallerSkipFrame(1).Msg(msg)
}

// Error records a log message at the Error level.
// It accepts an error, a message string and an optional key/value field list.
func Error(err error, msg string, fields ...any) {
	Logger().Error().Err(err).Fields(pairs("Error", fields)).CallerSkipFrame(1).Msg(msg)
}

// Fatal records a log message at the Fatal level and then calls os.Exit(1).
// It accepts an error, a message string and an optional key/value field list.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().Err(err).Fields(pairs("Fatal", fields)).CallerSkipFrame(1).Msg(msg)
}
