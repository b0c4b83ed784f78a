// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"

	"github.com/z5labs/tinyhttpd/config/key"
)

// UnknownKeyerError is returned for a key.Keyer implementation the
// store does not know how to walk.
type UnknownKeyerError struct {
	Key key.Keyer
}

// Error implements the error interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("config source tried setting config value with unknown key.Keyer: %s", e.Key.Key())
}

// EmptyKeyChainError is returned when a value is set on a zero length chain.
type EmptyKeyChainError struct {
	Value any
}

// Error implements the error interface.
func (e EmptyKeyChainError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key chain: %v", e.Value)
}

// UnexpectedKeyValueTypeError represents the situation when
// a source tries nesting a key under one which already holds a scalar.
type UnexpectedKeyValueTypeError struct {
	Key string
}

// Error implements the error interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a map[string]any: %s", e.Key)
}

type inMemoryStore map[string]any

func (m inMemoryStore) Set(k key.Keyer, v any) error {
	return set(m, k, v)
}

func set(m map[string]any, k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		m[string(x)] = v
		return nil
	case key.Chain:
		return setChain(m, x, v)
	default:
		return UnknownKeyerError{Key: k}
	}
}

func setChain(m map[string]any, chain key.Chain, v any) error {
	if len(chain) == 0 {
		return EmptyKeyChainError{Value: v}
	}
	if len(chain) == 1 {
		return set(m, chain[0], v)
	}

	root := chain[0].Key()
	old, ok := m[root]
	if !ok {
		old = make(map[string]any)
		m[root] = old
	}

	sub, ok := old.(map[string]any)
	if !ok {
		return UnexpectedKeyValueTypeError{Key: root}
	}
	return setChain(sub, chain[1:], v)
}
