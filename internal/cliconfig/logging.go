package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// Logger returns the CLI's console logger.
func Logger() zerolog.Logger {
	return logger
}

// SetVerbose lowers the log level to debug.
func SetVerbose() {
	logger = logger.Level(zerolog.DebugLevel)
}
