// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tinyhttpd

import (
	"errors"
	"time"
)

// ErrNoDocumentRoot is returned by Config.Validate without a document root.
var ErrNoDocumentRoot = errors.New("document root is required")

// ErrMissingIdentity is returned by Config.Validate when chroot is
// requested without both a user and a group.
var ErrMissingIdentity = errors.New("use both of --user and --group")

// Config is everything the server needs to start.
type Config struct {
	DocumentRoot string `config:"document_root"`

	// Port is numeric or a service name. Defaults to "80".
	Port string `config:"port"`

	// Debug keeps the process in the foreground and logs to stderr.
	Debug bool `config:"debug"`

	Chroot bool   `config:"chroot"`
	User   string `config:"user"`
	Group  string `config:"group"`

	// PIDFile is written when the server detaches. Empty disables it.
	PIDFile string `config:"pid_file"`

	// Trace exports a span per connection.
	Trace bool `config:"trace"`

	ShutdownTimeout time.Duration `config:"shutdown_timeout"`
}

// Validate reports configuration which can never start.
func (cfg Config) Validate() error {
	if cfg.DocumentRoot == "" {
		return ErrNoDocumentRoot
	}
	if cfg.Chroot && (cfg.User == "" || cfg.Group == "") {
		return ErrMissingIdentity
	}
	return nil
}
