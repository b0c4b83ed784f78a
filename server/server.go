// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server accepts TCP connections and answers exactly one
// request on each before closing it.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/z5labs/tinyhttpd/internal/fixedpool"
	"github.com/z5labs/tinyhttpd/internal/try"
	"github.com/z5labs/tinyhttpd/pkg/noop"
	"github.com/z5labs/tinyhttpd/pkg/slogfield"
	"github.com/z5labs/tinyhttpd/request"
	"github.com/z5labs/tinyhttpd/signals"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultShutdownTimeout bounds how long Serve waits for in-flight
// connections once its context is cancelled.
const DefaultShutdownTimeout = 5 * time.Second

const tracerName = "github.com/z5labs/tinyhttpd/server"

// Responder writes the response for a parsed request.
type Responder interface {
	Respond(w io.Writer, req *request.Request) (status int, err error)
}

// AcceptError is returned by Serve when accepting a connection fails
// for any reason other than shutdown.
type AcceptError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AcceptError) Error() string {
	return fmt.Sprintf("failed to accept connection: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AcceptError) Unwrap() error {
	return e.Cause
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for connection and lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithTracerProvider sets the provider of the per-connection tracer.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Server owns a listener and hands every accepted connection to its
// own goroutine. Connections share nothing but the Responder.
type Server struct {
	ln              net.Listener
	responder       Responder
	log             *slog.Logger
	tracer          trace.Tracer
	shutdownTimeout time.Duration

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// New returns a Server which will accept on ln.
func New(ln net.Listener, r Responder, opts ...Option) *Server {
	s := &Server{
		ln:              ln,
		responder:       r,
		log:             noop.Logger(),
		tracer:          otel.GetTracerProvider().Tracer(tracerName),
		shutdownTimeout: DefaultShutdownTimeout,
		conns:           make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or accepting fails.
// Cancellation is a clean stop and returns nil. In either case Serve
// waits for in-flight connections, closing any still open once the
// shutdown timeout elapses.
func (s *Server) Serve(ctx context.Context) error {
	s.log.InfoContext(ctx, "accepting connections", slogfield.String("addr", s.ln.Addr().String()))

	err := fixedpool.Wait(
		ctx,
		s.acceptLoop,
		func(ctx context.Context) error {
			<-ctx.Done()
			err := s.ln.Close()
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		},
	)

	s.drain(ctx)
	return err
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return AcceptError{Cause: err}
		}

		s.track(conn)
		s.wg.Add(1)
		go s.handle(context.WithoutCancel(ctx), conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	ctx, span := s.tracer.Start(
		ctx,
		"tinyhttpd.connection",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.addr", addrString(conn.RemoteAddr()))),
	)
	defer span.End()

	log := s.log.With(slogfield.RemoteAddr(conn.RemoteAddr()))

	req, status, err := s.exchange(conn)
	if req != nil {
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.target", req.Path),
		)
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}

	cerr := conn.Close()
	if cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		log.WarnContext(ctx, "failed to close connection", slogfield.Error(cerr))
	}

	switch {
	case err == nil:
		log.InfoContext(ctx, "responded", slogfield.Method(req.Method), slogfield.Path(req.Path), slogfield.Status(status))
	case signals.IsBrokenPipe(err):
		span.SetAttributes(attribute.Bool("tinyhttpd.peer_closed", true))
		log.InfoContext(ctx, "peer closed connection", slogfield.Error(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, "connection failed", slogfield.Error(err))
	}
}

// exchange parses one request and writes one response. A request that
// fails to parse gets no response at all.
func (s *Server) exchange(conn net.Conn) (req *request.Request, status int, err error) {
	defer try.Recover(&err)

	req, err = request.Parse(conn)
	if err != nil {
		return nil, 0, err
	}
	status, err = s.responder.Respond(conn, req)
	return req, status, err
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-done:
		return
	case <-time.After(s.shutdownTimeout):
	}

	s.mu.Lock()
	n := len(s.conns)
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.log.WarnContext(
		ctx,
		"closed connections still open after shutdown timeout",
		slogfield.Int("connections", n),
		slogfield.Duration("shutdown_timeout", s.shutdownTimeout),
	)
	<-done
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
