// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package fixedpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/z5labs/tinyhttpd/internal/try"
)

func TestWait(t *testing.T) {
	t.Run("will return nil", func(t *testing.T) {
		t.Run("if there are no tasks", func(t *testing.T) {
			err := Wait(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})

		t.Run("if every task succeeds", func(t *testing.T) {
			var calls atomic.Int32
			task := func(context.Context) error {
				calls.Add(1)
				return nil
			}

			err := Wait(context.Background(), task, task, task)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int32(3), calls.Load()) {
				return
			}
		})
	})

	t.Run("will cancel the remaining tasks", func(t *testing.T) {
		t.Run("if one task fails", func(t *testing.T) {
			acceptErr := errors.New("accept failed")

			err := Wait(
				context.Background(),
				func(context.Context) error {
					return acceptErr
				},
				func(ctx context.Context) error {
					<-ctx.Done()
					return nil
				},
			)
			if !assert.ErrorIs(t, err, acceptErr) {
				return
			}
		})

		t.Run("if one task panics", func(t *testing.T) {
			err := Wait(
				context.Background(),
				func(context.Context) error {
					panic("boom")
				},
				func(ctx context.Context) error {
					<-ctx.Done()
					return nil
				},
			)

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
		})
	})

	t.Run("will join every failure", func(t *testing.T) {
		t.Run("if multiple tasks fail", func(t *testing.T) {
			errA := errors.New("a")
			errB := errors.New("b")

			err := Wait(
				context.Background(),
				func(context.Context) error { return errA },
				func(context.Context) error { return errB },
			)
			if !assert.ErrorIs(t, err, errA) {
				return
			}
			if !assert.ErrorIs(t, err, errB) {
				return
			}
		})
	})
}
