// Package logging provides structured logging with file output support.
// It uses environment variables for configuration.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps debug, warn and error to their levels; anything else is
// info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(os.Getenv("ISASCAN_LOG_LEVEL")),
	})

	prefix := os.Getenv("ISASCAN_LOG_PREFIX")
	if prefix == "" {
		prefix = "isascan"
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// LogFile returns the file NewLogger appends to when ISASCAN_LOG_TO_FILE is
// set: ISASCAN_LOG_FILE, else isascan/isascan.log in the user cache
// directory.
func LogFile() string {
	if p := os.Getenv("ISASCAN_LOG_FILE"); p != "" {
		return p
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "isascan", "isascan.log")
}

// NewLogger creates a new logger based on environment variables
// ISASCAN_LOG_LEVEL: debug, info, warn, error (default: info)
// ISASCAN_LOG_PREFIX: prefix for log messages (default: "isascan")
// ISASCAN_LOG_TO_FILE: when set to "1", logs to LogFile() instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("ISASCAN_LOG_TO_FILE") == "1" {
		path := LogFile()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err == nil {
				output = f
			}
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return ParseLevel(os.Getenv("ISASCAN_LOG_LEVEL")) == log.DebugLevel
}
