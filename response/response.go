// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package response writes the HTTP/1.0 response for a parsed request.
package response

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/z5labs/tinyhttpd/internal/try"
	"github.com/z5labs/tinyhttpd/request"

	"github.com/go-git/go-billy/v5"
)

const (
	ServerName    = "TinyHTTPServer"
	ServerVersion = "1.0"

	// BlockSize is the chunk size used when streaming a file.
	BlockSize = 1024

	// DefaultContentType is sent for every served file.
	DefaultContentType = "text/plain"

	protocolMinorVersion = 0
)

const notFoundBody = "<html>\r\n" +
	"<header><title>Not Found</title><header>\r\n" +
	"<body><p>File not found</p></body>\r\n" +
	"</html>\r\n"

const notImplementedBody = "<html>\r\n" +
	"<header>\r\n" +
	"<title>501 Not Implemented</title>\r\n" +
	"<header>\r\n" +
	"<body>\r\n" +
	"<p>The request method %s is not implemented</p>\r\n" +
	"</body>\r\n" +
	"</html>\r\n"

// StreamError is returned when a response could not be delivered in full.
type StreamError struct {
	Path  string
	Op    string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e StreamError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to %s: %s", e.Op, e.Cause)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Op, e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e StreamError) Unwrap() error {
	return e.Cause
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of the Date header.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithContentType overrides DefaultContentType.
func WithContentType(contentType string) Option {
	return func(e *Engine) {
		e.contentType = contentType
	}
}

// Engine maps requests onto files below a document root.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	documentRoot string
	fs           billy.Filesystem
	now          func() time.Time
	contentType  string
}

// NewEngine returns an Engine serving from fs. documentRoot is only
// used to build the logged FileInfo.Path.
func NewEngine(documentRoot string, fs billy.Filesystem, opts ...Option) *Engine {
	e := &Engine{
		documentRoot: documentRoot,
		fs:           fs,
		now:          time.Now,
		contentType:  DefaultContentType,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond writes exactly one response for req to w and flushes it.
// The returned status is the one written on the status line, even when
// err reports that the rest of the response could not be delivered.
func (e *Engine) Respond(w io.Writer, req *request.Request) (status int, err error) {
	bw := bufio.NewWriter(w)
	defer flush(&err, bw)

	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return e.fileResponse(bw, req)
	default:
		return http.StatusNotImplemented, e.notImplemented(bw, req)
	}
}

func (e *Engine) fileResponse(w *bufio.Writer, req *request.Request) (int, error) {
	info := Lookup(e.fs, e.documentRoot, req.Path)
	if !info.Servable {
		return http.StatusNotFound, e.notFound(w, req)
	}

	e.writeCommonHeader(w, http.StatusOK)
	fmt.Fprintf(w, "Content-Length: %d\r\n", info.Size)
	fmt.Fprintf(w, "Content-Type: %s\r\n", e.contentType)
	w.WriteString("\r\n")

	if req.Method == http.MethodHead {
		return http.StatusOK, nil
	}
	return http.StatusOK, e.sendFile(w, req.Path, info)
}

func (e *Engine) sendFile(w io.Writer, path string, info FileInfo) (err error) {
	f, err := e.fs.Open(relative(path))
	if err != nil {
		return StreamError{Path: info.Path, Op: "open", Cause: err}
	}
	defer try.Close(&err, f)

	var sent int64
	buf := make([]byte, BlockSize)
	for sent < info.Size {
		chunk := buf
		if remaining := info.Size - sent; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, rerr := f.Read(chunk)
		if n > 0 {
			_, werr := w.Write(chunk[:n])
			if werr != nil {
				return StreamError{Op: "write", Cause: werr}
			}
			sent += int64(n)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return StreamError{Path: info.Path, Op: "read", Cause: rerr}
		}
	}
	if sent < info.Size {
		return StreamError{Path: info.Path, Op: "read", Cause: io.ErrUnexpectedEOF}
	}
	return nil
}

func (e *Engine) notFound(w *bufio.Writer, req *request.Request) error {
	e.writeCommonHeader(w, http.StatusNotFound)
	w.WriteString("Content-Type: text/html\r\n")
	w.WriteString("\r\n")
	if req.Method != http.MethodHead {
		w.WriteString(notFoundBody)
	}
	return nil
}

func (e *Engine) notImplemented(w *bufio.Writer, req *request.Request) error {
	e.writeCommonHeader(w, http.StatusNotImplemented)
	w.WriteString("Content-Type: text/html\r\n")
	w.WriteString("\r\n")
	fmt.Fprintf(w, notImplementedBody, req.Method)
	return nil
}

func (e *Engine) writeCommonHeader(w *bufio.Writer, status int) {
	fmt.Fprintf(w, "HTTP/1.%d %d %s\r\n", protocolMinorVersion, status, http.StatusText(status))
	fmt.Fprintf(w, "Date: %s\r\n", e.now().UTC().Format(http.TimeFormat))
	fmt.Fprintf(w, "Server: %s/%s\r\n", ServerName, ServerVersion)
	w.WriteString("Connection: close\r\n")
}

// flush surfaces write failures that bufio deferred until now.
func flush(err *error, w *bufio.Writer) {
	ferr := w.Flush()
	if ferr == nil || *err != nil {
		return
	}
	*err = StreamError{Op: "write", Cause: ferr}
}
