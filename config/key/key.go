// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package key names the values held by a config store.
package key

import (
	"strings"
)

// Keyer is implemented by every key a config source can set.
type Keyer interface {
	Key() string
}

// Name is a single, top level key such as "document_root".
type Name string

// Normalize spells a flag or environment variable name the way config
// tags are spelled, so "pid-file" and "PID_FILE" both become "pid_file".
func Normalize(s string) Name {
	return Name(strings.ToLower(strings.ReplaceAll(s, "-", "_")))
}

// Key implements the [Keyer] interface.
func (k Name) Key() string {
	return string(k)
}

// Chain addresses a value nested under one or more maps.
type Chain []Keyer

// Key implements the [Keyer] interface.
func (k Chain) Key() string {
	var sb strings.Builder
	for i, kk := range k {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(kk.Key())
	}
	return sb.String()
}
