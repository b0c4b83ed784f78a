// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/z5labs/tinyhttpd/internal/try"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying App returns an error", func(t *testing.T) {
			appErr := errors.New("failed to run")
			app := Recover(runFunc(func(ctx context.Context) error {
				return appErr
			}))

			err := app.Run(context.Background())
			if !assert.Equal(t, appErr, err) {
				return
			}
		})

		t.Run("if the underlying App panics", func(t *testing.T) {
			app := Recover(runFunc(func(ctx context.Context) error {
				panic("hello world")
			}))

			err := app.Run(context.Background())

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "hello world", perr.Value) {
				return
			}
		})
	})
}

func TestWithSignalNotifications(t *testing.T) {
	t.Run("will cancel the context", func(t *testing.T) {
		t.Run("if a listed signal is received", func(t *testing.T) {
			app := WithSignalNotifications(runFunc(func(ctx context.Context) error {
				err := unix.Kill(os.Getpid(), unix.SIGUSR1)
				if err != nil {
					return err
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(5 * time.Second):
					return errors.New("context was not cancelled")
				}
			}), unix.SIGUSR1)

			err := app.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}

func TestComposeLifecycleHooks(t *testing.T) {
	t.Run("will run every hook", func(t *testing.T) {
		t.Run("even if one fails", func(t *testing.T) {
			var order []int
			hookErr := errors.New("failed to remove pid file")

			hook := ComposeLifecycleHooks(
				LifecycleHookFunc(func(context.Context) error {
					order = append(order, 1)
					return hookErr
				}),
				nil,
				LifecycleHookFunc(func(context.Context) error {
					order = append(order, 2)
					return nil
				}),
			)

			err := hook.Run(context.Background())
			if !assert.ErrorIs(t, err, hookErr) {
				return
			}
			if !assert.Equal(t, []int{1, 2}, order) {
				return
			}
		})
	})
}

func TestWithLifecycleHooks(t *testing.T) {
	t.Run("will run PreRun, the app and PostRun in order", func(t *testing.T) {
		var order []string
		hook := func(name string) LifecycleHook {
			return LifecycleHookFunc(func(context.Context) error {
				order = append(order, name)
				return nil
			})
		}

		app := WithLifecycleHooks(runFunc(func(context.Context) error {
			order = append(order, "run")
			return nil
		}), Lifecycle{PreRun: hook("pre"), PostRun: hook("post")})

		err := app.Run(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, []string{"pre", "run", "post"}, order) {
			return
		}
	})

	t.Run("will skip the app but still run PostRun", func(t *testing.T) {
		t.Run("if PreRun fails", func(t *testing.T) {
			preErr := errors.New("chroot failed")
			ran := false
			postRan := false

			app := WithLifecycleHooks(runFunc(func(context.Context) error {
				ran = true
				return nil
			}), Lifecycle{
				PreRun: LifecycleHookFunc(func(context.Context) error { return preErr }),
				PostRun: LifecycleHookFunc(func(context.Context) error {
					postRan = true
					return nil
				}),
			})

			err := app.Run(context.Background())
			if !assert.ErrorIs(t, err, preErr) {
				return
			}
			if !assert.False(t, ran) {
				return
			}
			if !assert.True(t, postRan) {
				return
			}
		})
	})

	t.Run("will join the app and PostRun errors", func(t *testing.T) {
		appErr := errors.New("accept failed")
		postErr := errors.New("flush failed")

		app := WithLifecycleHooks(runFunc(func(context.Context) error {
			return appErr
		}), Lifecycle{
			PostRun: LifecycleHookFunc(func(context.Context) error { return postErr }),
		})

		err := app.Run(context.Background())
		if !assert.ErrorIs(t, err, appErr) {
			return
		}
		if !assert.ErrorIs(t, err, postErr) {
			return
		}
	})

	t.Run("will give PostRun a live context", func(t *testing.T) {
		t.Run("if the run context was cancelled", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			var postCtxErr error
			app := WithLifecycleHooks(runFunc(func(context.Context) error {
				return nil
			}), Lifecycle{
				PostRun: LifecycleHookFunc(func(ctx context.Context) error {
					postCtxErr = ctx.Err()
					return nil
				}),
			})

			err := app.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Nil(t, postCtxErr) {
				return
			}
		})
	})

	t.Run("will run PostRun", func(t *testing.T) {
		t.Run("if the app panics", func(t *testing.T) {
			postRan := false
			app := Recover(WithLifecycleHooks(runFunc(func(context.Context) error {
				panic("boom")
			}), Lifecycle{
				PostRun: LifecycleHookFunc(func(context.Context) error {
					postRan = true
					return nil
				}),
			}))

			err := app.Run(context.Background())
			if !assert.Error(t, err) {
				return
			}
			if !assert.True(t, postRan) {
				return
			}
		})
	})
}
