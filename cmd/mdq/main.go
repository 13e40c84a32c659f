// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package main implements mdq, which asks several DNS resolvers for the same
// name at once and prints every answer, so differences between resolvers
// stand out.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/noisysockets/mdq"
	"github.com/noisysockets/mdq/internal/util"
	"github.com/spf13/cobra"
)

type options struct {
	host      string
	timeout   time.Duration
	tcp       bool
	noGateway bool
	hosts     bool
	hostsFile string
	logLevel  string
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "mdq",
		Short: "Query several DNS resolvers at once and compare their answers",
		Long: `mdq sends the same A query to a set of public resolvers and to the
default gateway in parallel, and prints the answer of every resolver.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.timeout <= 0 {
				return fmt.Errorf("invalid timeout %s: must be positive", opts.timeout)
			}

			logger, err := newLogger(stderr, opts.logLevel)
			if err != nil {
				return err
			}

			return run(cmd.Context(), stdout, logger, &opts)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&opts.host, "host", "H", "", "domain or host name to query (required)")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "timeout for each resolver")
	flags.BoolVar(&opts.tcp, "tcp", false, "use DNS over TCP instead of UDP")
	flags.BoolVar(&opts.noGateway, "no-gateway", false, "do not query the default gateway")
	flags.BoolVar(&opts.hosts, "hosts", false, "also print the entries of the hosts file")
	flags.StringVar(&opts.hostsFile, "hosts-file", "/etc/hosts", "hosts file used with --hosts")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func run(ctx context.Context, stdout io.Writer, logger *slog.Logger, opts *options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	transport := mdq.TransportUDP
	if opts.tcp {
		transport = mdq.TransportTCP
	}

	conf := &mdq.RunConfig{
		NoGateway: util.PointerTo(opts.noGateway),
		Dispatcher: &mdq.DispatcherConfig{
			Query: &mdq.QueryConfig{
				Timeout:   util.PointerTo(opts.timeout),
				Transport: util.PointerTo(transport),
			},
			Output: stdout,
		},
		Logger: logger,
	}

	if opts.hosts {
		hosts, err := mdq.Hosts(&mdq.HostsConfig{
			Path: util.PointerTo(opts.hostsFile),
		})
		if err != nil {
			return fmt.Errorf("failed to load hosts file: %w", err)
		}

		conf.Hosts = hosts
	}

	_, err := mdq.Run(ctx, opts.host, conf)
	return err
}
