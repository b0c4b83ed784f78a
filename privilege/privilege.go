// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package privilege confines the running process to a new filesystem
// root and drops it to an unprivileged user and group.
package privilege

import (
	"errors"
	"fmt"
	"os/user"
	"slices"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrMissingIdentity is returned unless both a user and a group are given.
var ErrMissingIdentity = errors.New("use both of user and group")

// Identity is the numeric identity the process will assume.
type Identity struct {
	UID    int
	GID    int
	Groups []int
}

// LookupError is returned when a user or group name cannot be resolved.
type LookupError struct {
	Kind  string
	Name  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e LookupError) Error() string {
	return fmt.Sprintf("no such %s: %s: %s", e.Kind, e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e LookupError) Unwrap() error {
	return e.Cause
}

// SyscallError is returned when one of the identity or root changing
// calls fails.
type SyscallError struct {
	Op    string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e SyscallError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e SyscallError) Unwrap() error {
	return e.Cause
}

// Syscalls are the process state changes performed by Confine.
type Syscalls interface {
	Setgid(gid int) error
	Setgroups(gids []int) error
	Chroot(path string) error
	Chdir(path string) error
	Setuid(uid int) error
}

// Resolver maps user and group names onto an Identity.
type Resolver interface {
	Resolve(userName, groupName string) (Identity, error)
}

// Option configures a Confiner.
type Option func(*Confiner)

// WithSyscalls replaces the real system calls.
func WithSyscalls(sys Syscalls) Option {
	return func(c *Confiner) {
		c.sys = sys
	}
}

// WithResolver replaces the os/user based name resolution.
func WithResolver(r Resolver) Option {
	return func(c *Confiner) {
		c.resolver = r
	}
}

// Confiner performs the one time transition into a confined process.
type Confiner struct {
	sys      Syscalls
	resolver Resolver
}

// NewConfiner returns a Confiner backed by the host's user database
// and system calls unless overridden.
func NewConfiner(opts ...Option) *Confiner {
	c := &Confiner{
		sys:      unixSyscalls{},
		resolver: userResolver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confine changes root to root, then drops to userName and groupName.
// Names are resolved before anything changes because the user database
// is usually not reachable from inside the new root. Group identity is
// always dropped before user identity.
func (c *Confiner) Confine(root, userName, groupName string) error {
	if userName == "" || groupName == "" {
		return ErrMissingIdentity
	}

	id, err := c.resolver.Resolve(userName, groupName)
	if err != nil {
		return err
	}

	steps := []struct {
		op string
		do func() error
	}{
		{op: "setgid", do: func() error { return c.sys.Setgid(id.GID) }},
		{op: "setgroups", do: func() error { return c.sys.Setgroups(id.Groups) }},
		{op: "chroot", do: func() error { return c.sys.Chroot(root) }},
		{op: "chdir", do: func() error { return c.sys.Chdir("/") }},
		{op: "setuid", do: func() error { return c.sys.Setuid(id.UID) }},
	}
	for _, step := range steps {
		err := step.do()
		if err != nil {
			return SyscallError{Op: step.op, Cause: err}
		}
	}
	return nil
}

// unixSyscalls applies every credential change to all threads of the
// process. unix.Setgroups only changes the calling thread.
type unixSyscalls struct{}

func (unixSyscalls) Setgid(gid int) error       { return unix.Setgid(gid) }
func (unixSyscalls) Setgroups(gids []int) error { return syscall.Setgroups(gids) }
func (unixSyscalls) Chroot(path string) error   { return unix.Chroot(path) }
func (unixSyscalls) Chdir(path string) error    { return unix.Chdir(path) }
func (unixSyscalls) Setuid(uid int) error       { return unix.Setuid(uid) }

type userResolver struct{}

// Resolve computes the supplementary groups the same way initgroups
// does: the primary group plus every group listing the user.
func (userResolver) Resolve(userName, groupName string) (Identity, error) {
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return Identity{}, LookupError{Kind: "group", Name: groupName, Cause: err}
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Identity{}, LookupError{Kind: "group", Name: groupName, Cause: err}
	}

	u, err := user.Lookup(userName)
	if err != nil {
		return Identity{}, LookupError{Kind: "user", Name: userName, Cause: err}
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Identity{}, LookupError{Kind: "user", Name: userName, Cause: err}
	}

	groups := []int{gid}
	ids, err := u.GroupIds()
	if err != nil {
		return Identity{}, LookupError{Kind: "user", Name: userName, Cause: err}
	}
	for _, s := range ids {
		id, err := strconv.Atoi(s)
		if err != nil || slices.Contains(groups, id) {
			continue
		}
		groups = append(groups, id)
	}

	return Identity{UID: uid, GID: gid, Groups: groups}, nil
}
