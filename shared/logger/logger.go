package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout. Development mode uses the
// human readable console writer; everything else emits JSON.
func New(level string, development bool) *zerolog.Logger {
	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return NewWithWriter(out, level)
}

// NewWithWriter creates a JSON logger on w at the given level. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, level string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &logger
}

// RedactToken keeps only enough of a bearer token to correlate log lines.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 10 {
		return "[redacted]"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
