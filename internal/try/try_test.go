// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will set the error", func(t *testing.T) {
		t.Run("if a non-error value is recovered", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				panic("conn handler blew up")
			}

			err := f()

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "conn handler blew up", perr.Value) {
				return
			}
			if !assert.Nil(t, perr.Unwrap()) {
				return
			}
		})

		t.Run("if an error value is recovered after the func already failed", func(t *testing.T) {
			writeErr := errors.New("write failed")
			panicErr := errors.New("nil response writer")
			f := func() (err error) {
				defer Recover(&err)
				err = writeErr
				panic(panicErr)
			}

			err := f()

			if !assert.ErrorIs(t, err, writeErr) {
				return
			}
			if !assert.ErrorIs(t, err, panicErr) {
				return
			}
		})
	})

	t.Run("will leave the error untouched", func(t *testing.T) {
		t.Run("if nothing panics", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				return nil
			}

			if !assert.Nil(t, f()) {
				return
			}
		})
	})
}

type closeFunc func() error

func (f closeFunc) Close() error {
	return f()
}

func TestClose(t *testing.T) {
	t.Run("will set a CloseError", func(t *testing.T) {
		testCases := []struct {
			Name    string
			FuncErr error
		}{
			{
				Name: "if the func succeeded",
			},
			{
				Name:    "if the func already failed",
				FuncErr: errors.New("short body"),
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				closeErr := errors.New("close failed")
				c := closeFunc(func() error {
					return closeErr
				})

				f := func() (err error) {
					defer Close(&err, c)
					return testCase.FuncErr
				}

				err := f()

				var cerr CloseError
				if !assert.ErrorAs(t, err, &cerr) {
					return
				}
				if !assert.ErrorIs(t, cerr, closeErr) {
					return
				}
				if testCase.FuncErr == nil {
					return
				}
				if !assert.ErrorIs(t, err, testCase.FuncErr) {
					return
				}
			})
		}
	})

	t.Run("will leave the error untouched", func(t *testing.T) {
		t.Run("if the value is not an io.Closer", func(t *testing.T) {
			funcErr := errors.New("func error")
			f := func() (err error) {
				defer Close(&err, 42)
				return funcErr
			}

			if !assert.Equal(t, funcErr, f()) {
				return
			}
		})

		t.Run("if Close succeeds", func(t *testing.T) {
			f := func() (err error) {
				defer Close(&err, closeFunc(func() error { return nil }))
				return nil
			}

			if !assert.Nil(t, f()) {
				return
			}
		})
	})
}
