// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package request

import (
	"errors"
	"fmt"
)

// ErrNoRequestLine is returned when the stream ends before any
// request line was received.
var ErrNoRequestLine = errors.New("no request line")

// Stage names the part of the request being read when a ReadError occurred.
type Stage string

const (
	StageRequestLine Stage = "request line"
	StageHeader      Stage = "header field"
	StageBody        Stage = "body"
)

// ReadError wraps an I/O failure on the inbound stream.
type ReadError struct {
	Stage Stage
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %s", e.Stage, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// LineTooLongError is returned for a request or header line which
// does not fit in the line buffer.
type LineTooLongError struct {
	Stage Stage
	Max   int
}

// Error implements the [builtin.error] interface.
func (e LineTooLongError) Error() string {
	return fmt.Sprintf("%s exceeds %d bytes", e.Stage, e.Max)
}

// RequestLineError describes a malformed request line.
type RequestLineError struct {
	Line   string
	Reason string
}

// Error implements the [builtin.error] interface.
func (e RequestLineError) Error() string {
	return fmt.Sprintf("parse error on request line (%s): %q", e.Reason, e.Line)
}

// HeaderFieldError is returned for a header line without a colon.
type HeaderFieldError struct {
	Line string
}

// Error implements the [builtin.error] interface.
func (e HeaderFieldError) Error() string {
	return fmt.Sprintf("parse error on header field: %q", e.Line)
}

// ContentLengthError is returned for a negative Content-Length.
type ContentLengthError struct {
	Value string
}

// Error implements the [builtin.error] interface.
func (e ContentLengthError) Error() string {
	return fmt.Sprintf("invalid content length: %q", e.Value)
}

// BodyTooLargeError is returned when Content-Length exceeds Max.
// Length is -1 when the declared value overflowed.
type BodyTooLargeError struct {
	Length int64
	Max    int64
}

// Error implements the [builtin.error] interface.
func (e BodyTooLargeError) Error() string {
	if e.Length < 0 {
		return fmt.Sprintf("content length overflows, max is %d", e.Max)
	}
	return fmt.Sprintf("content length is too big: length=%d max=%d", e.Length, e.Max)
}
