// Package logging builds the process-wide zerolog logger from exportd
// configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipewise/exportd/internal/config"
)

// Logger wraps a configured zerolog.Logger together with the file handle
// it may own. The caller should call Close when done.
type Logger struct {
	zerolog.Logger
	fileHandle *os.File // non-nil if logging to file
}

// New creates a logger from the logging section of the config.
func New(cfg config.Logging) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Level, err)
	}

	var writers []io.Writer

	if cfg.Output == config.DefaultLogOutput || cfg.Output == config.OutputBoth {
		if cfg.Format == "console" {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	var fileHandle *os.File
	if cfg.Output == config.OutputFile || cfg.Output == config.OutputBoth {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: path validated by config layer
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		fileHandle = f
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", "exportd").
		Logger()

	return &Logger{Logger: zl, fileHandle: fileHandle}, nil
}

// NewNop returns a no-op logger that discards all events.
func NewNop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close releases the log file handle, if any.
func (l *Logger) Close() error {
	if l.fileHandle == nil {
		return nil
	}
	return l.fileHandle.Close()
}
