// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/z5labs/tinyhttpd/pkg/slogfield"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestNew(t *testing.T) {
	t.Run("will log to stderr", func(t *testing.T) {
		t.Run("if running in the foreground", func(t *testing.T) {
			var stderr bytes.Buffer
			dialed := false

			log, closer, err := New(
				Config{Foreground: true, Level: slog.LevelDebug},
				WithStderr(&stderr),
				WithSyslog(func(string) (io.WriteCloser, error) {
					dialed = true
					return nil, nil
				}),
			)
			require.Nil(t, err)
			defer closer.Close()

			log.Debug("parsed request", slogfield.Method("GET"))

			if !assert.False(t, dialed) {
				return
			}
			if !assert.Contains(t, stderr.String(), "msg=\"parsed request\"") {
				return
			}
			if !assert.Contains(t, stderr.String(), "http.method=GET") {
				return
			}
		})
	})

	t.Run("will log to the system log", func(t *testing.T) {
		t.Run("if running detached", func(t *testing.T) {
			var stderr bytes.Buffer
			sys := &bufCloser{}
			var tag string

			log, closer, err := New(
				Config{},
				WithStderr(&stderr),
				WithSyslog(func(t string) (io.WriteCloser, error) {
					tag = t
					return sys, nil
				}),
			)
			require.Nil(t, err)

			log.Info("accepting connections")
			require.Nil(t, closer.Close())

			if !assert.Equal(t, DefaultTag, tag) {
				return
			}
			if !assert.Empty(t, stderr.String()) {
				return
			}
			if !assert.Contains(t, sys.String(), "accepting connections") {
				return
			}
			if !assert.NotContains(t, sys.String(), "time=") {
				return
			}
			if !assert.True(t, sys.closed) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the system log is unreachable", func(t *testing.T) {
			dialErr := errors.New("no syslog daemon")

			_, _, err := New(Config{}, WithSyslog(func(string) (io.WriteCloser, error) {
				return nil, dialErr
			}))
			if !assert.ErrorIs(t, err, dialErr) {
				return
			}
		})
	})

	t.Run("will drop records below the level", func(t *testing.T) {
		var stderr bytes.Buffer
		log, _, err := New(Config{Foreground: true, Level: slog.LevelWarn}, WithStderr(&stderr))
		require.Nil(t, err)

		log.Info("hidden")
		if !assert.Empty(t, stderr.String()) {
			return
		}
	})
}

func TestFatal(t *testing.T) {
	t.Run("will log and exit with status 1", func(t *testing.T) {
		orig := exit
		defer func() { exit = orig }()

		code := -1
		exit = func(c int) { code = c }

		var buf bytes.Buffer
		Fatal(slog.New(slog.NewTextHandler(&buf, nil)), "failed to listen", slogfield.String("port", "80"))

		if !assert.Equal(t, 1, code) {
			return
		}
		if !assert.Contains(t, buf.String(), "level=ERROR") {
			return
		}
		if !assert.Contains(t, buf.String(), "port=80") {
			return
		}
	})
}
