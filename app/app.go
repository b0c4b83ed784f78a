// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides decorators for a [tinyhttpd.App].
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/tinyhttpd"
	"github.com/z5labs/tinyhttpd/internal/try"
)

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Recover will wrap the give [tinyhttpd.App] with panic recovery.
// A recovered panic is returned as a [try.PanicError].
func Recover(app tinyhttpd.App) tinyhttpd.App {
	return runFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications cancels the [context.Context] passed to
// app.Run when any of signals is received.
func WithSignalNotifications(app tinyhttpd.App, signals ...os.Signal) tinyhttpd.App {
	return runFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// LifecycleHook represents functionality that needs to be performed
// at a specific "time" relative to the execution of [tinyhttpd.App.Run].
type LifecycleHook interface {
	Run(context.Context) error
}

// LifecycleHookFunc is a convenient helper type for implementing a [LifecycleHook]
// from just a regular func.
type LifecycleHookFunc func(context.Context) error

// Run implements the [LifecycleHook] interface.
func (f LifecycleHookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ComposeLifecycleHooks combines multiple [LifecycleHook]s into one.
// Every hook runs, in order, even if an earlier one failed, and all
// errors are joined.
func ComposeLifecycleHooks(hooks ...LifecycleHook) LifecycleHook {
	return LifecycleHookFunc(func(ctx context.Context) error {
		var errs []error
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			err := hook.Run(ctx)
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Lifecycle groups the hooks run around an app.
type Lifecycle struct {
	// PreRun runs before the app. If it fails the app is not run.
	PreRun LifecycleHook

	// PostRun is always executed regardless if PreRun or the
	// underlying [tinyhttpd.App] returns an error or panics.
	PostRun LifecycleHook
}

// WithLifecycleHooks wraps a given [tinyhttpd.App] in an implementation
// that runs [LifecycleHook]s around the execution of app.Run.
func WithLifecycleHooks(app tinyhttpd.App, lifecycle Lifecycle) tinyhttpd.App {
	return runFunc(func(ctx context.Context) (err error) {
		defer runPostRunHook(ctx, lifecycle.PostRun, &err)

		if lifecycle.PreRun != nil {
			err = lifecycle.PreRun.Run(ctx)
			if err != nil {
				return err
			}
		}
		return app.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook LifecycleHook, err *error) {
	if hook == nil {
		return
	}

	// PostRun hooks release resources, so they get a context which
	// outlives a cancelled run.
	hookErr := hook.Run(context.WithoutCancel(ctx))
	*err = errors.Join(*err, hookErr)
}
