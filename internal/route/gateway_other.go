//go:build !linux

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
	"log/slog"
	"net/netip"
)

// GatewayConfig is the configuration for default gateway discovery.
type GatewayConfig struct {
	// Logger is used for debug output.
	Logger *slog.Logger
}

// DefaultGateway is only implemented on Linux.
func DefaultGateway(_ *GatewayConfig) (netip.Addr, error) {
	return netip.Addr{}, ErrUnsupported
}
