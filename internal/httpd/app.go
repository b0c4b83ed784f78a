// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/z5labs/tinyhttpd/daemon"
	"github.com/z5labs/tinyhttpd/pkg/slogfield"
	"github.com/z5labs/tinyhttpd/response"
	"github.com/z5labs/tinyhttpd/server"
	"github.com/z5labs/tinyhttpd/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// detachApp runs in the foreground process of a server which is not in
// debug mode. It starts the detached copy and returns.
type detachApp struct {
	log     *slog.Logger
	ln      net.Listener
	args    []string
	detach  func(net.Listener, []string) (int, error)
	pidFile string
}

func (a *detachApp) Run(ctx context.Context) error {
	defer a.ln.Close()

	var pidFile *daemon.PIDFile
	if a.pidFile != "" {
		p, err := daemon.CreatePIDFile(a.pidFile)
		if err != nil {
			return err
		}
		pidFile = p
	}

	pid, err := a.detach(a.ln, a.args)
	if err != nil {
		if pidFile != nil {
			pidFile.Remove()
		}
		return err
	}
	a.log.InfoContext(ctx, "detached", slogfield.Int("pid", pid), slogfield.String("addr", a.ln.Addr().String()))

	if pidFile == nil {
		return nil
	}
	// The detached process is already serving.
	err = pidFile.Write(pid)
	if err != nil {
		a.log.WarnContext(ctx, "failed to write pid file", slogfield.String("path", a.pidFile), slogfield.Error(err))
	}
	return nil
}

// serveApp runs the accept loop.
type serveApp struct {
	log             *slog.Logger
	ln              net.Listener
	documentRoot    string
	shutdownTimeout time.Duration
	trace           telemetry.Config

	tp       trace.TracerProvider
	shutdown telemetry.ShutdownFunc
}

func (a *serveApp) Run(ctx context.Context) error {
	engine := response.NewEngine(a.documentRoot, response.NewFilesystem(a.documentRoot))

	opts := []server.Option{
		server.WithLogger(a.log),
	}
	if a.tp != nil {
		opts = append(opts, server.WithTracerProvider(a.tp))
	}
	if a.shutdownTimeout > 0 {
		opts = append(opts, server.WithShutdownTimeout(a.shutdownTimeout))
	}

	srv := server.New(a.ln, engine, opts...)
	a.log.InfoContext(
		ctx,
		"serving",
		slogfield.Bool("trace", a.trace.Enabled),
		slogfield.String("document_root", a.documentRoot),
	)
	return srv.Serve(ctx)
}

func (a *serveApp) initTelemetry(ctx context.Context) error {
	tp, shutdown, err := telemetry.Init(ctx, a.trace)
	if err != nil {
		return err
	}
	a.tp = tp
	a.shutdown = shutdown
	return nil
}

func (a *serveApp) shutdownTelemetry(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}

// closeListener tolerates a listener already closed by Serve.
func closeListener(ln io.Closer) error {
	err := ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
