// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package request parses a single HTTP/1.x request from a byte stream.
package request

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
)

const (
	// MaxLineLength bounds the request line and every header line,
	// terminator included.
	MaxLineLength = 4096

	// MaxBodyLength is the largest Content-Length accepted.
	MaxBodyLength = 1024 * 1024

	protocolPrefix = "HTTP/1."
)

// Request is one parsed HTTP request.
type Request struct {
	// ProtocolMinorVersion is the digit run following "HTTP/1.", or 0.
	ProtocolMinorVersion int

	// Method is upper-cased.
	Method string

	// Path is the raw request target, neither decoded nor cleaned.
	Path string

	Header Header

	// Body is nil unless a positive Content-Length was declared.
	Body []byte
}

// Parse reads exactly one request from r. Any error means the
// connection must be dropped without a response.
func Parse(r io.Reader) (*Request, error) {
	br := bufio.NewReaderSize(r, MaxLineLength)

	line, err := readLine(br, StageRequestLine)
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRequestLine
	}
	if err != nil {
		return nil, err
	}

	req := new(Request)
	err = parseRequestLine(req, line)
	if err != nil {
		return nil, err
	}

	for {
		line, err := readLine(br, StageHeader)
		if errors.Is(err, io.EOF) {
			return nil, ReadError{Stage: StageHeader, Cause: io.ErrUnexpectedEOF}
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, HeaderFieldError{Line: line}
		}
		req.Header.Add(name, strings.TrimLeft(value, "\t"))
	}

	n, err := contentLength(req.Header)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return req, nil
	}

	req.Body = make([]byte, n)
	_, err = io.ReadFull(br, req.Body)
	if err != nil {
		return nil, ReadError{Stage: StageBody, Cause: err}
	}
	return req, nil
}

// readLine returns the next line without its LF or CRLF terminator.
// A final line cut short by EOF is returned as is.
func readLine(br *bufio.Reader, stage Stage) (string, error) {
	b, err := br.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return "", LineTooLongError{Stage: stage, Max: MaxLineLength}
	}
	if errors.Is(err, io.EOF) && len(b) > 0 {
		err = nil
	}
	if errors.Is(err, io.EOF) {
		return "", err
	}
	if err != nil {
		return "", ReadError{Stage: stage, Cause: err}
	}

	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return string(b), nil
}

func parseRequestLine(req *Request, line string) error {
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return RequestLineError{Line: line, Reason: "missing method"}
	}

	path, proto, ok := strings.Cut(rest, " ")
	if !ok {
		return RequestLineError{Line: line, Reason: "missing path"}
	}

	if len(proto) < len(protocolPrefix) || !strings.EqualFold(proto[:len(protocolPrefix)], protocolPrefix) {
		return RequestLineError{Line: line, Reason: "unsupported protocol"}
	}

	req.Method = strings.ToUpper(method)
	req.Path = path
	req.ProtocolMinorVersion = int(leadingInt(proto[len(protocolPrefix):], math.MaxInt32))
	return nil
}

func contentLength(h Header) (int64, error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return 0, nil
	}

	n, overflow := parseLong(v)
	switch {
	case overflow:
		return 0, BodyTooLargeError{Length: -1, Max: MaxBodyLength}
	case n < 0:
		return 0, ContentLengthError{Value: v}
	case n > MaxBodyLength:
		return 0, BodyTooLargeError{Length: n, Max: MaxBodyLength}
	}
	return n, nil
}

// parseLong skips leading white space, accepts an optional sign and
// then consumes digits until the first non-digit. Text without
// digits yields 0.
func parseLong(s string) (n int64, overflow bool) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")

	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	for i := 0; i < len(s) && isDigit(s[i]); i++ {
		d := int64(s[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, true
		}
		n = n*10 + d
	}
	if neg {
		n = -n
	}
	return n, false
}

// leadingInt parses the leading digit run of s, saturating at limit.
func leadingInt(s string, limit int64) int64 {
	n, overflow := parseLong(s)
	if overflow || n > limit {
		return limit
	}
	if n < -limit {
		return -limit
	}
	return n
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
