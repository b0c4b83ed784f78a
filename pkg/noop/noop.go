// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides do-nothing implementations used as defaults
// when a caller does not supply its own.
package noop

import (
	"context"
	"log/slog"
)

// LogHandler is an slog.Handler which drops every record.
type LogHandler struct{}

// Enabled implements the slog.Handler interface.
func (LogHandler) Enabled(context.Context, slog.Level) bool { return false }

// Handle implements the slog.Handler interface.
func (LogHandler) Handle(context.Context, slog.Record) error { return nil }

// WithAttrs implements the slog.Handler interface.
func (h LogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

// WithGroup implements the slog.Handler interface.
func (h LogHandler) WithGroup(string) slog.Handler { return h }

// Logger returns a logger backed by LogHandler.
func Logger() *slog.Logger {
	return slog.New(LogHandler{})
}
