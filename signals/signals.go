// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package signals holds the process wide signal disposition of the server.
package signals

import (
	"errors"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Policy is installed once, before the accept loop starts.
type Policy struct {
	// Ignore lists signals which must never terminate the process.
	Ignore []os.Signal

	// Shutdown lists signals which end the accept loop gracefully.
	Shutdown []os.Signal
}

// DefaultPolicy ignores SIGPIPE so that a peer closing early only ends
// the write that observed it. A detached daemon also ignores SIGHUP.
func DefaultPolicy(daemon bool) Policy {
	p := Policy{
		Ignore:   []os.Signal{unix.SIGPIPE},
		Shutdown: []os.Signal{unix.SIGINT, unix.SIGTERM},
	}
	if daemon {
		p.Ignore = append(p.Ignore, unix.SIGHUP)
	}
	return p
}

// Install applies the ignore list and returns a func which restores
// the default disposition.
func (p Policy) Install() (restore func()) {
	if len(p.Ignore) == 0 {
		return func() {}
	}

	signal.Ignore(p.Ignore...)
	return func() {
		signal.Reset(p.Ignore...)
	}
}

// IsBrokenPipe reports whether err means the peer went away while a
// response was being written.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET)
}
