// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package daemon detaches the server from its controlling terminal.
//
// A Go process cannot safely fork without exec, so the foreground
// process starts a copy of its own executable in a new session and
// hands it the already bound listener as file descriptor 3. The copy
// finds the listener with [Inherited] and the foreground process exits.
package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// EnvMarker is set in the environment of the detached process.
const EnvMarker = "TINYHTTPD_DAEMON"

// EnvWorkDir carries the working directory of the foreground process,
// since the detached process always starts in "/".
const EnvWorkDir = "TINYHTTPD_DAEMON_DIR"

// inheritedFD is the first descriptor after stdin, stdout and stderr.
const inheritedFD = 3

// ErrNotInherited is returned by Inherited in a process which was not
// started by Detach.
var ErrNotInherited = errors.New("no listener was inherited from a parent process")

// ErrNoFile is returned when a listener cannot expose its descriptor.
var ErrNoFile = errors.New("listener does not expose a file descriptor")

// DetachError wraps failures while starting the detached process.
type DetachError struct {
	Op    string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e DetachError) Error() string {
	return fmt.Sprintf("failed to detach: %s: %s", e.Op, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DetachError) Unwrap() error {
	return e.Cause
}

// IsDetached reports whether the current process was started by Detach.
func IsDetached() bool {
	return os.Getenv(EnvMarker) == "1"
}

// Inherited returns the listener passed down by Detach.
func Inherited() (net.Listener, error) {
	if !IsDetached() {
		return nil, ErrNotInherited
	}

	f := os.NewFile(inheritedFD, "listener")
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, DetachError{Op: "inherit listener", Cause: err}
	}
	return ln, nil
}

// ResolvePath makes p absolute. Relative paths resolve against the
// directory recorded in [EnvWorkDir] when set, else the current one.
func ResolvePath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if dir := os.Getenv(EnvWorkDir); dir != "" {
		return filepath.Join(dir, p), nil
	}
	return filepath.Abs(p)
}

type filer interface {
	File() (*os.File, error)
}

// Command builds, but does not start, the detached copy of the current
// process. The caller owns the returned files and must close them
// after the command has started.
func Command(ln net.Listener, args []string) (*exec.Cmd, []*os.File, error) {
	lf, ok := ln.(filer)
	if !ok {
		return nil, nil, DetachError{Op: "listener file", Cause: ErrNoFile}
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, nil, DetachError{Op: "locate executable", Cause: err}
	}

	f, err := lf.File()
	if err != nil {
		return nil, nil, DetachError{Op: "listener file", Cause: err}
	}

	wd, err := os.Getwd()
	if err != nil {
		f.Close()
		return nil, nil, DetachError{Op: "working directory", Cause: err}
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		f.Close()
		return nil, nil, DetachError{Op: "open " + os.DevNull, Cause: err}
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), EnvMarker+"=1", EnvWorkDir+"="+wd)
	cmd.Dir = "/"
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.ExtraFiles = []*os.File{f}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, []*os.File{f, devNull}, nil
}

// Detach starts the detached copy and returns its pid. The current
// process is expected to exit straight after.
func Detach(ln net.Listener, args []string) (int, error) {
	cmd, files, err := Command(ln, args)
	if err != nil {
		return 0, err
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	err = cmd.Start()
	if err != nil {
		return 0, DetachError{Op: "start", Cause: err}
	}

	pid := cmd.Process.Pid
	err = cmd.Process.Release()
	if err != nil {
		return pid, DetachError{Op: "release", Cause: err}
	}
	return pid, nil
}
