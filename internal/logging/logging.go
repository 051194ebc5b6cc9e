// Package logging builds the zerolog logger shared by the CLI components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder collects logger settings. Make turns them into a Logger.
type Builder struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

// Logger is a ready logger plus the file it may own.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New starts a builder that writes info and above to stderr.
func New() *Builder {
	return &Builder{writer: os.Stderr, level: zerolog.InfoLevel}
}

// FromPath appends to the file at path instead of the writer.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromWriter sets the destination writer.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// WithLevel sets the minimum level.
func (b *Builder) WithLevel(level zerolog.Level) *Builder {
	b.level = level
	return b
}

// WithLevelName sets the minimum level from its name. An empty name keeps
// the current level.
func (b *Builder) WithLevelName(name string) (*Builder, error) {
	if name == "" {
		return b, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	b.level = level
	return b, nil
}

// Console renders human-readable lines instead of JSON. It has no effect
// when logging to a file.
func (b *Builder) Console() *Builder {
	b.console = true
	return b
}

// Make opens the destination and returns the logger.
func (b *Builder) Make() (*Logger, error) {
	l := &Logger{}
	w := b.writer
	if w == nil {
		w = io.Discard
	}

	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		w = zerolog.SyncWriter(f)
	} else if b.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	}

	l.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
