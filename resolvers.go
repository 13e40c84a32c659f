// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package mdq queries several DNS resolvers for the same name concurrently and
// reports the answer of each one separately.
package mdq

import (
	"net/netip"
	"slices"
)

var publicResolvers = [...]netip.Addr{
	netip.MustParseAddr("1.1.1.1"),        // Cloudflare
	netip.MustParseAddr("8.8.8.8"),        // Google
	netip.MustParseAddr("9.9.9.9"),        // Quad9
	netip.MustParseAddr("37.235.1.174"),   // FreeDNS
	netip.MustParseAddr("208.67.222.222"), // OpenDNS
}

// PublicResolvers returns the well known public resolvers that are always
// queried, in query order.
func PublicResolvers() []netip.Addr {
	return slices.Clone(publicResolvers[:])
}

// ResolverSet returns the resolvers to query: the fixed resolvers in order,
// followed by the gateway if it is valid. Duplicates are kept.
func ResolverSet(fixed []netip.Addr, gateway netip.Addr) []netip.Addr {
	servers := make([]netip.Addr, 0, len(fixed)+1)
	servers = append(servers, fixed...)

	if gateway.IsValid() {
		servers = append(servers, gateway)
	}

	return servers
}
