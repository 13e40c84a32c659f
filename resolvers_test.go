// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mdq_test

import (
	"net/netip"
	"testing"

	"github.com/noisysockets/mdq"
	"github.com/stretchr/testify/require"
)

var expectedPublicResolvers = []netip.Addr{
	netip.MustParseAddr("1.1.1.1"),
	netip.MustParseAddr("8.8.8.8"),
	netip.MustParseAddr("9.9.9.9"),
	netip.MustParseAddr("37.235.1.174"),
	netip.MustParseAddr("208.67.222.222"),
}

func TestPublicResolvers(t *testing.T) {
	require.Equal(t, expectedPublicResolvers, mdq.PublicResolvers())

	// Callers get their own copy.
	resolvers := mdq.PublicResolvers()
	resolvers[0] = netip.MustParseAddr("192.0.2.1")
	require.Equal(t, expectedPublicResolvers, mdq.PublicResolvers())
}

func TestResolverSet(t *testing.T) {
	t.Run("Without Gateway", func(t *testing.T) {
		servers := mdq.ResolverSet(mdq.PublicResolvers(), netip.Addr{})

		require.Equal(t, expectedPublicResolvers, servers)
	})

	t.Run("With Gateway", func(t *testing.T) {
		gateway := netip.MustParseAddr("192.168.1.1")
		servers := mdq.ResolverSet(mdq.PublicResolvers(), gateway)

		require.Len(t, servers, 6)
		require.Equal(t, expectedPublicResolvers, servers[:5])
		require.Equal(t, gateway, servers[5])
	})

	t.Run("Duplicate Gateway", func(t *testing.T) {
		gateway := netip.MustParseAddr("8.8.8.8")
		servers := mdq.ResolverSet(mdq.PublicResolvers(), gateway)

		require.Len(t, servers, 6)
		require.Equal(t, gateway, servers[1])
		require.Equal(t, gateway, servers[5])
	})
}
