package util

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	Logger zerolog.Logger
)

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(inlevel string) zerolog.Level {
	switch strings.ToLower(inlevel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func LogInit(inlevel string) {
	logTo(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, inlevel)
}

func logTo(w io.Writer, inlevel string) {
	level := ParseLevel(inlevel)
	Logger = zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
	Logger.Info().Msgf("logging initialized at level %v", level)
}
