// Package logging builds the structured logger every other package takes
// as a dependency: a slog.Handler tree rather than the standard library's
// "log" package. slog-multi lets the session and transport layers fan the
// same record out to a log file (always) and stderr (only under --verbose)
// without either handler knowing about the other.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Config controls where log records go.
type Config struct {
	// Path is the log file to append structured records to. Empty
	// disables file logging.
	Path string

	// Verbose additionally fans records out to stderr in human-readable
	// text form, for the REPL running attached to a terminal.
	Verbose bool

	// Level floors which records are emitted at all.
	Level slog.Level
}

// New builds the process-wide logger. The returned closer flushes and
// closes the underlying log file, if any, and should be deferred by main.
func New(cfg Config) (*slog.Logger, func() error, error) {
	var handlers []slog.Handler
	closer := func() error { return nil }

	opts := &slog.HandlerOptions{Level: cfg.Level}

	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f.Close
	}

	if cfg.Verbose {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = slogmulti.Fanout(handlers...)
	}

	return slog.New(handler), closer, nil
}

// Discard returns a logger that drops every record, used by unit tests
// that construct a package's types directly without running Config
// through New.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
