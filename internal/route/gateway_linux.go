//go:build linux

// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package route

import (
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"

	"github.com/mdlayher/netlink"
	"github.com/noisysockets/mdq/internal/util"
	"golang.org/x/sys/unix"
)

// Conn is the subset of a netlink connection used for route dumps.
type Conn interface {
	Execute(m netlink.Message) ([]netlink.Message, error)
	Close() error
}

// GatewayConfig is the configuration for default gateway discovery.
type GatewayConfig struct {
	// Dial opens the routing socket. By default a NETLINK_ROUTE socket is
	// opened.
	Dial func() (Conn, error)
	// Logger is used for debug output.
	Logger *slog.Logger
}

// DefaultGateway returns the gateway address of the default route in the main
// routing table. When there are several default routes the one with the
// lowest metric is used. IPv6 link-local gateways carry the index of their
// output interface as zone.
func DefaultGateway(conf *GatewayConfig) (netip.Addr, error) {
	conf, err := util.ConfigWithDefaults(conf, &GatewayConfig{
		Dial: func() (Conn, error) {
			return netlink.Dial(unix.NETLINK_ROUTE, nil)
		},
		Logger: slog.Default(),
	})
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to apply defaults to gateway config: %w", err)
	}

	conn, err := conf.Dial()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to open routing socket: %w", err)
	}
	defer conn.Close()

	req, err := dumpRequest()
	if err != nil {
		return netip.Addr{}, err
	}

	// Execute keeps reading until the kernel marks the end of the dump.
	msgs, err := conn.Execute(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to dump routes: %w", err)
	}

	var (
		best       netip.Addr
		bestMetric uint32
	)
	for _, msg := range msgs {
		if msg.Header.Type != unix.RTM_NEWROUTE {
			continue
		}

		rt, err := ParseMessage(msg.Data)
		if err != nil {
			conf.Logger.Debug("Skipping malformed route message", slog.Any("error", err))
			continue
		}

		// Only the default route (0.0.0.0/0 or ::/0) is of interest.
		if rt.DstLen != 0 {
			continue
		}

		gateway, ok := rt.Gateway()
		if !ok {
			continue
		}

		// Link-local gateways are only reachable through their interface.
		if gateway.Is6() && gateway.IsLinkLocalUnicast() {
			oif, ok := rt.OutputInterface()
			if !ok {
				conf.Logger.Debug("Skipping link-local gateway without an output interface",
					slog.String("gateway", gateway.String()))
				continue
			}

			gateway = gateway.WithZone(strconv.Itoa(oif))
		}

		// The kernel prefers the lowest metric, ties go to the first route dumped.
		metric := rt.Priority()
		if best.IsValid() && metric >= bestMetric {
			continue
		}

		best, bestMetric = gateway, metric
	}

	if !best.IsValid() {
		return netip.Addr{}, ErrNoDefaultGateway
	}

	conf.Logger.Debug("Found default gateway",
		slog.String("gateway", best.String()),
		slog.Uint64("metric", uint64(bestMetric)))

	return best, nil
}

func dumpRequest() (netlink.Message, error) {
	rt := Message{
		Family:   unix.AF_UNSPEC,
		Table:    unix.RT_TABLE_UNSPEC,
		Protocol: unix.RTPROT_UNSPEC,
		Scope:    unix.RT_SCOPE_UNIVERSE,
		Type:     unix.RTN_UNSPEC,
	}

	data, err := rt.MarshalBinary()
	if err != nil {
		return netlink.Message{}, err
	}

	return netlink.Message{
		Header: netlink.Header{
			Type:  unix.RTM_GETROUTE,
			Flags: netlink.Request | netlink.Dump,
		},
		Data: data,
	}, nil
}
