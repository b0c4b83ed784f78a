// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides the slog.Attr constructors used across
// tinyhttpd so that the same concept is always logged under the same key.
package slogfield

import (
	"log/slog"
	"net"
	"time"
)

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// RemoteAddr returns an slog.Attr for the peer of a connection.
func RemoteAddr(addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String("remote_addr", "")
	}
	return slog.String("remote_addr", addr.String())
}

// Method returns an slog.Attr for a request method.
func Method(method string) slog.Attr {
	return slog.String("http.method", method)
}

// Path returns an slog.Attr for a request path.
func Path(path string) slog.Attr {
	return slog.String("http.path", path)
}

// Status returns an slog.Attr for a response status code.
func Status(code int) slog.Attr {
	return slog.Int("http.status", code)
}
