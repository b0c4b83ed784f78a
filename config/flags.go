// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"github.com/z5labs/tinyhttpd/config/key"

	"github.com/spf13/pflag"
)

// Flags is a Source backed by a parsed pflag.FlagSet.
type Flags struct {
	fs *pflag.FlagSet
}

// FromFlags returns a Source over fs. Only flags set explicitly on the
// command line are applied so that flag defaults never override values
// from earlier sources. Dashes in flag names become underscores.
func FromFlags(fs *pflag.FlagSet) Flags {
	return Flags{fs: fs}
}

// Apply implements the Source interface.
func (src Flags) Apply(store Store) error {
	var err error
	src.fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = store.Set(key.Normalize(f.Name), f.Value.String())
	})
	return err
}
