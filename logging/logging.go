// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging builds the server's structured logger.
//
// A server running in the foreground logs text to stderr. A detached
// server has no terminal, so it logs to the system log instead.
package logging

import (
	"context"
	"io"
	"log/slog"
	"log/syslog"
	"os"

	"github.com/z5labs/tinyhttpd/pkg/otelslog"
)

// DefaultTag identifies the server in the system log.
const DefaultTag = "tinyhttpd"

// Config is the logging configuration of one process.
type Config struct {
	// Foreground selects stderr over the system log.
	Foreground bool

	Level slog.Leveler

	// Tag is the system log identifier. Defaults to DefaultTag.
	Tag string
}

// Option configures New.
type Option func(*options)

type options struct {
	stderr io.Writer
	dial   func(tag string) (io.WriteCloser, error)
}

// WithStderr replaces the foreground destination.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}

// WithSyslog replaces the system log connection.
func WithSyslog(dial func(tag string) (io.WriteCloser, error)) Option {
	return func(o *options) {
		o.dial = dial
	}
}

// New returns a logger for cfg and the resource to close on exit.
func New(cfg Config, opts ...Option) (*slog.Logger, io.Closer, error) {
	o := options{
		stderr: os.Stderr,
		dial:   dialSyslog,
	}
	for _, opt := range opts {
		opt(&o)
	}

	hopts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Foreground {
		return otelslog.New(slog.NewTextHandler(o.stderr, hopts)), nopCloser{}, nil
	}

	tag := cfg.Tag
	if tag == "" {
		tag = DefaultTag
	}
	w, err := o.dial(tag)
	if err != nil {
		return nil, nil, err
	}

	// syslog stamps its own time.
	hopts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return otelslog.New(slog.NewTextHandler(w, hopts)), w, nil
}

func dialSyslog(tag string) (io.WriteCloser, error) {
	return syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, tag)
}

// exit is swapped in tests.
var exit = os.Exit

// Fatal logs msg at error level and terminates the process with
// status 1. Only startup failures are fatal to the process.
func Fatal(log *slog.Logger, msg string, attrs ...slog.Attr) {
	log.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
	exit(1)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
