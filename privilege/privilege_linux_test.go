// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package privilege

import (
	"bufio"
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadGroups returns the supplementary groups of the calling OS thread.
func threadGroups() (string, error) {
	f, err := os.Open("/proc/thread-self/status")
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v, ok := strings.CutPrefix(sc.Text(), "Groups:")
		if ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", sc.Err()
}

func TestUnixSyscalls_Setgroups(t *testing.T) {
	t.Run("will change the groups of every thread", func(t *testing.T) {
		if os.Geteuid() != 0 {
			t.Skip("changing supplementary groups requires root")
		}

		orig, err := syscall.Getgroups()
		require.Nil(t, err)
		t.Cleanup(func() {
			syscall.Setgroups(orig)
		})

		type result struct {
			groups string
			err    error
		}

		const threads = 8
		ready := make(chan struct{})
		release := make(chan struct{})
		results := make(chan result, threads)
		for range threads {
			go func() {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()

				ready <- struct{}{}
				<-release

				groups, err := threadGroups()
				results <- result{groups: groups, err: err}
			}()
		}
		for range threads {
			<-ready
		}

		err = unixSyscalls{}.Setgroups([]int{4242})
		close(release)
		require.Nil(t, err)

		for range threads {
			r := <-results
			if !assert.Nil(t, r.err) {
				return
			}
			if !assert.Equal(t, "4242", r.groups) {
				return
			}
		}
	})
}
