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
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// DialContextFunc is a function that establishes a connection to a DNS server.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Transport is the transport protocol used to reach a resolver.
type Transport string

const (
	// TransportUDP is DNS over UDP as defined in RFC 1035.
	TransportUDP Transport = "udp"
	// TransportTCP is DNS over TCP as defined in RFC 1035.
	TransportTCP Transport = "tcp"
)

// Exchanger sends a single DNS request to a server and returns its reply.
type Exchanger interface {
	Exchange(ctx context.Context, server netip.AddrPort, req *dns.Msg) (*dns.Msg, error)
}

var _ Exchanger = (*dnsExchanger)(nil)

// dnsExchanger exchanges messages over a fresh connection per request.
type dnsExchanger struct {
	transport   Transport
	dialContext DialContextFunc
}

// NewExchanger returns an Exchanger that dials a new connection for every
// request using the given transport.
func NewExchanger(transport Transport, dialContext DialContextFunc) Exchanger {
	if dialContext == nil {
		dialContext = (&net.Dialer{}).DialContext
	}

	return &dnsExchanger{
		transport:   transport,
		dialContext: dialContext,
	}
}

func (e *dnsExchanger) Exchange(ctx context.Context, server netip.AddrPort, req *dns.Msg) (*dns.Msg, error) {
	dnsErr := &net.DNSError{
		Server: server.String(),
	}
	if len(req.Question) > 0 {
		dnsErr.Name = req.Question[0].Name
	}

	if e.transport != TransportUDP && e.transport != TransportTCP {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err: fmt.Errorf("%w: %q", ErrUnsupportedTransport, e.transport).Error(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err:       err.Error(),
			IsTimeout: errors.Is(err, context.DeadlineExceeded),
		})
	}

	conn, err := e.dialContext(ctx, string(e.transport), server.String())
	if err != nil {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err:         err.Error(),
			IsTimeout:   isTimeout(err),
			IsTemporary: true,
		})
	}
	defer conn.Close()

	client := &dns.Client{
		Net: string(e.transport),
	}

	// Keep the client's read and write deadlines within the context deadline.
	if deadline, ok := ctx.Deadline(); ok {
		client.Timeout = time.Until(deadline)
	}

	reply, _, err := client.ExchangeWithConn(req, &dns.Conn{Conn: conn})
	if err != nil {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err:         err.Error(),
			IsTimeout:   isTimeout(err),
			IsTemporary: true,
		})
	}

	return reply, nil
}
