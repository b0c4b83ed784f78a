// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Key(t *testing.T) {
	testCases := []struct {
		Name   string
		Chain  Chain
		Expect string
	}{
		{Name: "empty", Chain: Chain{}, Expect: ""},
		{Name: "single", Chain: Chain{Name("port")}, Expect: "port"},
		{Name: "nested", Chain: Chain{Name("trace"), Name("enabled")}, Expect: "trace.enabled"},
		{Name: "chain of chains", Chain: Chain{Chain{Name("a"), Name("b")}, Name("c")}, Expect: "a.b.c"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			if !assert.Equal(t, testCase.Expect, testCase.Chain.Key()) {
				return
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		Name   string
		In     string
		Expect Name
	}{
		{Name: "flag", In: "pid-file", Expect: "pid_file"},
		{Name: "environment variable", In: "SHUTDOWN_TIMEOUT", Expect: "shutdown_timeout"},
		{Name: "already normalized", In: "document_root", Expect: "document_root"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			if !assert.Equal(t, testCase.Expect, Normalize(testCase.In)) {
				return
			}
		})
	}
}
