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
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"

	hostsfile "github.com/kevinburke/hostsfile/lib"
	"github.com/miekg/dns"
	"github.com/noisysockets/mdq/internal/util"
	"github.com/noisysockets/netutil/addrselect"
)

// HostsResolverName is the resolver name used for hosts file results.
const HostsResolverName = "hosts"

// HostsConfig is the configuration for a hosts file source.
type HostsConfig struct {
	// Path is the hosts file to read. Defaults to /etc/hosts.
	Path *string
	// Reader is an optional source of the hosts file contents, if set Path is
	// ignored.
	Reader io.Reader
	// DialContext is used for ordering the returned addresses.
	DialContext DialContextFunc
}

// HostsSource answers lookups from a static hosts file, so the locally
// configured addresses can be compared with what the resolvers return.
type HostsSource struct {
	addrsByName map[string][]netip.Addr
	dialContext DialContextFunc
}

// Hosts loads a hosts file.
func Hosts(conf *HostsConfig) (*HostsSource, error) {
	conf, err := util.ConfigWithDefaults(conf, &HostsConfig{
		Path:        util.PointerTo("/etc/hosts"),
		DialContext: (&net.Dialer{}).DialContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply defaults to hosts config: %w", err)
	}

	r := conf.Reader
	if r == nil {
		f, err := os.Open(*conf.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open hosts file: %w", err)
		}
		defer f.Close()

		r = f
	}

	h, err := hostsfile.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hosts file: %w", err)
	}

	addrsByName := make(map[string][]netip.Addr)
	for _, record := range h.Records() {
		// Comments and blank lines have no address.
		addr, ok := netip.AddrFromSlice(record.IpAddress.IP)
		if !ok {
			continue
		}
		addr = addr.Unmap()

		for name := range record.Hostnames {
			name = dns.Fqdn(strings.ToLower(name))
			addrsByName[name] = append(addrsByName[name], addr)
		}
	}

	return &HostsSource{
		addrsByName: addrsByName,
		dialContext: conf.DialContext,
	}, nil
}

// Lookup returns the hosts file entries for domain as address records,
// ordered the way the system would prefer them.
func (h *HostsSource) Lookup(ctx context.Context, domain string) *Result {
	name := Normalize(strings.ToLower(domain))

	addrs := append([]netip.Addr{}, h.addrsByName[name]...)
	if len(addrs) > 1 {
		dial := func(network, address string) (net.Conn, error) {
			return h.dialContext(ctx, network, address)
		}

		addrselect.SortByRFC6724(dial, addrs)
	}

	result := &Result{
		Resolver: HostsResolverName,
	}

	for _, addr := range addrs {
		if addr.Is4() {
			result.Answers = append(result.Answers, &dns.A{
				Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET},
				A:   addr.AsSlice(),
			})
		} else {
			result.Answers = append(result.Answers, &dns.AAAA{
				Hdr:  dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET},
				AAAA: addr.AsSlice(),
			})
		}
	}

	return result
}
