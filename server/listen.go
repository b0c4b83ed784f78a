// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	// DefaultPort is used when no port is configured.
	DefaultPort = "80"

	// Backlog is the pending connection queue length of the listener.
	Backlog = 5
)

// ListenError is returned when no wildcard address could be bound.
type ListenError struct {
	Port   string
	Causes []error
}

// Error implements the [builtin.error] interface.
func (e ListenError) Error() string {
	return fmt.Sprintf("failed to listen on port %s: %s", e.Port, errors.Join(e.Causes...))
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ListenError) Unwrap() []error {
	return e.Causes
}

type candidate struct {
	network string
	family  int
	addr    func(port int) unix.Sockaddr
}

var candidates = []candidate{
	{
		network: "tcp4",
		family:  unix.AF_INET,
		addr: func(port int) unix.Sockaddr {
			return &unix.SockaddrInet4{Port: port}
		},
	},
	{
		network: "tcp6",
		family:  unix.AF_INET6,
		addr: func(port int) unix.Sockaddr {
			return &unix.SockaddrInet6{Port: port}
		},
	},
}

// Listen binds the wildcard address of the first address family that
// accepts it. port may be numeric or a service name. An empty port
// means DefaultPort.
func Listen(port string) (net.Listener, error) {
	if port == "" {
		port = DefaultPort
	}

	n, err := resolvePort(port)
	if err != nil {
		return nil, ListenError{Port: port, Causes: []error{err}}
	}

	var causes []error
	for _, c := range candidates {
		ln, err := listen(c, n)
		if err == nil {
			return ln, nil
		}
		causes = append(causes, fmt.Errorf("%s: %w", c.network, err))
	}
	return nil, ListenError{Port: port, Causes: causes}
}

func resolvePort(port string) (int, error) {
	n, err := strconv.Atoi(port)
	if err == nil {
		if n < 0 || n > 65535 {
			return 0, fmt.Errorf("port out of range: %d", n)
		}
		return n, nil
	}
	return net.LookupPort("tcp", port)
}

func listen(c candidate, port int) (net.Listener, error) {
	fd, err := unix.Socket(c.family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	err = setup(fd, c.addr(port))
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	// FileListener dups fd so the *os.File is closed either way.
	f := os.NewFile(uintptr(fd), c.network+":"+strconv.Itoa(port))
	defer f.Close()

	return net.FileListener(f)
}

func setup(fd int, sa unix.Sockaddr) error {
	err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	err = unix.Bind(fd, sa)
	if err != nil {
		return os.NewSyscallError("bind", err)
	}
	err = unix.Listen(fd, Backlog)
	if err != nil {
		return os.NewSyscallError("listen", err)
	}
	return nil
}

// FileListener adopts a listening socket inherited from a parent process.
func FileListener(f *os.File) (net.Listener, error) {
	defer f.Close()
	return net.FileListener(f)
}
