// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mdq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/noisysockets/mdq/internal/route"
	"github.com/noisysockets/mdq/internal/util"
)

// RunConfig is the configuration for a complete multi resolver lookup.
type RunConfig struct {
	// Resolvers are queried in addition to the default gateway.
	// Defaults to PublicResolvers().
	Resolvers []netip.Addr
	// NoGateway disables querying the default gateway.
	NoGateway *bool
	// Gateway discovers the default gateway. Defaults to reading the main
	// routing table.
	Gateway func() (netip.Addr, error)
	// Hosts is an optional hosts file source whose result is written before
	// any resolver is queried.
	Hosts *HostsSource
	// Dispatcher configures the concurrent queries.
	Dispatcher *DispatcherConfig
	// Logger is used for diagnostics.
	Logger *slog.Logger
}

// Run queries every configured resolver and the default gateway for domain,
// writing each result as it arrives. It only returns an error if the default
// gateway could not be looked up at all.
func Run(ctx context.Context, domain string, conf *RunConfig) ([]*Result, error) {
	conf, err := util.ConfigWithDefaults(conf, &RunConfig{
		Resolvers: PublicResolvers(),
		NoGateway: util.PointerTo(false),
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply defaults to run config: %w", err)
	}

	logger := conf.Logger

	var gateway netip.Addr
	if !*conf.NoGateway {
		discover := conf.Gateway
		if discover == nil {
			discover = func() (netip.Addr, error) {
				return route.DefaultGateway(&route.GatewayConfig{
					Logger: logger,
				})
			}
		}

		gateway, err = discover()
		switch {
		case err == nil:
			logger.Debug("Querying default gateway", slog.String("gateway", gateway.String()))
		case errors.Is(err, ErrNoDefaultGateway), errors.Is(err, ErrUnsupported):
			logger.Warn("Not querying default gateway", slog.Any("error", err))
			gateway = netip.Addr{}
		default:
			return nil, fmt.Errorf("failed to discover default gateway: %w", err)
		}
	}

	dispatcherConf := DispatcherConfig{}
	if conf.Dispatcher != nil {
		dispatcherConf = *conf.Dispatcher
	}
	if dispatcherConf.Logger == nil {
		dispatcherConf.Logger = logger
	}

	d := NewDispatcher(&dispatcherConf)

	if conf.Hosts != nil {
		d.emit(conf.Hosts.Lookup(ctx, domain))
	}

	return d.Dispatch(ctx, domain, ResolverSet(conf.Resolvers, gateway)), nil
}
