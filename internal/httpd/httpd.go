// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpd turns a tinyhttpd.Config into a runnable server by
// performing the startup sequence: signal policy, listen, detach,
// confinement and finally the accept loop.
package httpd

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/z5labs/tinyhttpd"
	"github.com/z5labs/tinyhttpd/app"
	"github.com/z5labs/tinyhttpd/daemon"
	"github.com/z5labs/tinyhttpd/logging"
	"github.com/z5labs/tinyhttpd/pkg/slogfield"
	"github.com/z5labs/tinyhttpd/privilege"
	"github.com/z5labs/tinyhttpd/response"
	"github.com/z5labs/tinyhttpd/server"
	"github.com/z5labs/tinyhttpd/signals"
	"github.com/z5labs/tinyhttpd/telemetry"
)

// Confiner changes the process root and identity.
type Confiner interface {
	Confine(root, userName, groupName string) error
}

// Option configures a Builder.
type Option func(*Builder)

// WithListen replaces server.Listen.
func WithListen(f func(port string) (net.Listener, error)) Option {
	return func(b *Builder) {
		b.listen = f
	}
}

// WithDetach replaces daemon.Detach.
func WithDetach(f func(ln net.Listener, args []string) (int, error)) Option {
	return func(b *Builder) {
		b.detach = f
	}
}

// WithConfiner replaces the privilege.Confiner.
func WithConfiner(c Confiner) Option {
	return func(b *Builder) {
		b.confiner = c
	}
}

// WithLogging overrides the logging options of detached and
// foreground processes.
func WithLogging(opts ...logging.Option) Option {
	return func(b *Builder) {
		b.logOpts = opts
	}
}

// WithTraceOutput sets where spans are written when tracing is enabled.
func WithTraceOutput(w io.Writer) Option {
	return func(b *Builder) {
		b.traceOut = w
	}
}

// WithArgs sets the arguments handed to the detached process.
func WithArgs(args []string) Option {
	return func(b *Builder) {
		b.args = args
	}
}

// Builder builds the server app. The zero value is not usable; use NewBuilder.
type Builder struct {
	listen     func(port string) (net.Listener, error)
	inherited  func() (net.Listener, error)
	isDetached func() bool
	detach     func(ln net.Listener, args []string) (int, error)
	confiner   Confiner
	logOpts    []logging.Option
	traceOut   io.Writer
	args       []string
	resolve    func(string) (string, error)
}

// NewBuilder returns a Builder which uses the real operating system.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		listen:     server.Listen,
		inherited:  daemon.Inherited,
		isDetached: daemon.IsDetached,
		detach:     daemon.Detach,
		confiner:   privilege.NewConfiner(),
		traceOut:   os.Stderr,
		args:       os.Args[1:],
		resolve:    daemon.ResolvePath,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is NewBuilder().Build.
func Build(ctx context.Context, cfg tinyhttpd.Config) (tinyhttpd.App, error) {
	return NewBuilder().Build(ctx, cfg)
}

// Build performs every startup step which must happen before the
// process detaches. Binding happens here, while the process may still
// be privileged, so that confinement can drop privileges afterwards.
func (b *Builder) Build(ctx context.Context, cfg tinyhttpd.Config) (tinyhttpd.App, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	cfg.DocumentRoot, err = b.resolve(cfg.DocumentRoot)
	if err != nil {
		return nil, err
	}
	if cfg.PIDFile != "" {
		cfg.PIDFile, err = b.resolve(cfg.PIDFile)
		if err != nil {
			return nil, err
		}
	}

	detached := b.isDetached()
	log, logCloser, err := logging.New(logging.Config{
		Foreground: !detached,
		Level:      level(cfg.Debug),
	}, b.logOpts...)
	if err != nil {
		return nil, err
	}

	policy := signals.DefaultPolicy(detached || !cfg.Debug)
	restoreSignals := policy.Install()

	ln, err := b.listener(detached, cfg.Port)
	if err != nil {
		restoreSignals()
		logCloser.Close()
		return nil, err
	}

	if !cfg.Debug && !detached {
		return &detachApp{
			log:     log,
			ln:      ln,
			args:    b.args,
			detach:  b.detach,
			pidFile: cfg.PIDFile,
		}, nil
	}

	s := &serveApp{
		log:             log,
		ln:              ln,
		documentRoot:    cfg.DocumentRoot,
		shutdownTimeout: cfg.ShutdownTimeout,
		trace: telemetry.Config{
			Enabled:        cfg.Trace,
			Out:            b.traceOut,
			ServiceName:    "tinyhttpd",
			ServiceVersion: response.ServerVersion,
		},
	}

	lifecycle := app.Lifecycle{
		PreRun: app.ComposeLifecycleHooks(
			confineHook(cfg, b.confiner, s, log),
			app.LifecycleHookFunc(s.initTelemetry),
		),
		PostRun: app.ComposeLifecycleHooks(
			app.LifecycleHookFunc(func(context.Context) error {
				return closeListener(ln)
			}),
			app.LifecycleHookFunc(s.shutdownTelemetry),
			pidFileHook(cfg, detached, log),
			app.LifecycleHookFunc(func(context.Context) error {
				restoreSignals()
				return logCloser.Close()
			}),
		),
	}

	var a tinyhttpd.App = app.WithLifecycleHooks(s, lifecycle)
	a = app.WithSignalNotifications(a, policy.Shutdown...)
	return app.Recover(a), nil
}

func (b *Builder) listener(detached bool, port string) (net.Listener, error) {
	if detached {
		return b.inherited()
	}
	return b.listen(port)
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func confineHook(cfg tinyhttpd.Config, c Confiner, s *serveApp, log *slog.Logger) app.LifecycleHook {
	return app.LifecycleHookFunc(func(ctx context.Context) error {
		if !cfg.Chroot {
			return nil
		}

		err := c.Confine(cfg.DocumentRoot, cfg.User, cfg.Group)
		if err != nil {
			return err
		}
		log.InfoContext(
			ctx,
			"confined to document root",
			slogfield.String("root", cfg.DocumentRoot),
			slogfield.String("user", cfg.User),
			slogfield.String("group", cfg.Group),
		)
		s.documentRoot = "/"
		return nil
	})
}

// pidFileHook removes the pid file written on behalf of this process.
// A confined process usually cannot reach it any more, which is only
// worth a warning.
func pidFileHook(cfg tinyhttpd.Config, detached bool, log *slog.Logger) app.LifecycleHook {
	return app.LifecycleHookFunc(func(ctx context.Context) error {
		if !detached || cfg.PIDFile == "" {
			return nil
		}

		p := daemon.PIDFile{Path: cfg.PIDFile}
		err := p.Remove()
		if err != nil {
			log.WarnContext(ctx, "failed to remove pid file", slogfield.String("path", cfg.PIDFile), slogfield.Error(err))
		}
		return nil
	})
}
