// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "github.com/z5labs/tinyhttpd/config/key"

// Map is an ordinary map[string]any but implements the Source interface.
type Map map[string]any

// Apply implements the Source interface. Nested maps become key chains.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain key.Chain) error {
	for k, v := range m {
		next := append(chain[:len(chain):len(chain)], key.Name(k))

		sub, ok := v.(map[string]any)
		if ok {
			err := walkMap(sub, store, next)
			if err != nil {
				return err
			}
			continue
		}

		err := store.Set(next, v)
		if err != nil {
			return err
		}
	}
	return nil
}
