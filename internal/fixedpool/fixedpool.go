// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package fixedpool

import (
	"context"
	"errors"
	"sync"

	"github.com/z5labs/tinyhttpd/internal/try"
)

type Task func(context.Context) error

// Wait blocks until every task has returned. The first failure cancels the rest.
func Wait(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := run(ctx, task)
			if err == nil {
				return
			}
			cancel(err)

			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func run(ctx context.Context, task Task) (err error) {
	defer try.Recover(&err)
	return task(ctx)
}
