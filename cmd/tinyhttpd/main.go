// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command tinyhttpd serves static files from a document root.
package main

import (
	"context"

	"github.com/z5labs/tinyhttpd"
	"github.com/z5labs/tinyhttpd/daemon"
	"github.com/z5labs/tinyhttpd/internal/httpd"
	"github.com/z5labs/tinyhttpd/logging"
	"github.com/z5labs/tinyhttpd/pkg/slogfield"
)

func main() {
	cmd := buildCmd(tinyhttpd.AppBuilderFunc[tinyhttpd.Config](httpd.Build))
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	log, _, lerr := logging.New(logging.Config{Foreground: !daemon.IsDetached()})
	if lerr != nil {
		log, _, _ = logging.New(logging.Config{Foreground: true})
	}
	logging.Fatal(log, "tinyhttpd failed", slogfield.Error(err))
}
