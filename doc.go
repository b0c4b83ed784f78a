// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tinyhttpd is a minimal static file HTTP server.
//
// Every accepted connection carries exactly one HTTP/1.x request. GET
// and HEAD are answered from regular files below a document root, any
// other method gets 501 Not Implemented, and the connection is closed
// once the response has been flushed. A request which fails to parse
// is not answered at all.
//
// # Running
//
// [Run] reads configuration from a list of [config.Source]s, decodes it
// into a config type, builds an [App] from it and runs the app:
//
//	err := tinyhttpd.Run(
//	    ctx,
//	    tinyhttpd.AppBuilderFunc[tinyhttpd.Config](httpd.Build),
//	    config.Map{"port": "80"},
//	    config.FromEnv("TINYHTTPD_"),
//	)
//
// Each stage reports failure with its own error type so callers can
// tell a bad configuration from a server that failed while running.
package tinyhttpd
