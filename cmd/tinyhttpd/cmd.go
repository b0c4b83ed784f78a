// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/z5labs/tinyhttpd"
	"github.com/z5labs/tinyhttpd/config"
	"github.com/z5labs/tinyhttpd/daemon"
	"github.com/z5labs/tinyhttpd/server"

	"github.com/spf13/cobra"
)

// EnvPrefix namespaces the environment variables read as config.
const EnvPrefix = "TINYHTTPD_"

func defaults() config.Map {
	return config.Map{
		"port":             server.DefaultPort,
		"pid_file":         daemon.DefaultPIDFile,
		"shutdown_timeout": server.DefaultShutdownTimeout.String(),
	}
}

func buildCmd(builder tinyhttpd.AppBuilder[tinyhttpd.Config]) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tinyhttpd [flags] <document-root>",
		Short:         "Serve static files over HTTP/1.0",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Past argument parsing any failure is operational, not usage.
			cmd.SilenceUsage = true

			return tinyhttpd.Run(
				cmd.Context(),
				builder,
				defaults(),
				config.FromEnv(EnvPrefix),
				config.FromFlags(cmd.Flags()),
				config.Map{"document_root": args[0]},
			)
		},
	}

	flags := cmd.Flags()
	flags.StringP("port", "p", server.DefaultPort, "port number or service name to listen on")
	flags.BoolP("debug", "d", false, "stay in the foreground and log to stderr")
	flags.Bool("chroot", false, "confine the process to the document root, requires --user and --group")
	flags.String("user", "", "user to run as after confinement")
	flags.String("group", "", "group to run as after confinement")
	flags.String("pid-file", daemon.DefaultPIDFile, "where to record the pid of the detached server, empty to disable")
	flags.Bool("trace", false, "write a span per connection to stderr")
	flags.Duration("shutdown-timeout", server.DefaultShutdownTimeout, "how long in-flight connections may take once shutdown starts")

	return cmd
}
