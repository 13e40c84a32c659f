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
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"github.com/noisysockets/mdq/internal/util"
)

// QueryConfig is the configuration for querying a single resolver.
type QueryConfig struct {
	// Port is the port resolvers listen on. Defaults to 53.
	Port *uint16
	// Type is the question type. Defaults to A.
	Type *uint16
	// Timeout bounds each query, including connection setup.
	Timeout *time.Duration
	// Transport is the transport protocol. Defaults to UDP.
	Transport *Transport
	// DialContext is used to connect to resolvers.
	DialContext DialContextFunc
	// Exchanger overrides how requests are sent. If set, Transport and
	// DialContext are ignored.
	Exchanger Exchanger
	// Logger is used for debug output.
	Logger *slog.Logger
}

// Querier sends one question to one resolver at a time.
type Querier struct {
	port      uint16
	qType     uint16
	timeout   time.Duration
	exchanger Exchanger
	logger    *slog.Logger
}

// NewQuerier creates a new Querier.
func NewQuerier(conf *QueryConfig) *Querier {
	conf, err := util.ConfigWithDefaults(conf, &QueryConfig{
		Port:        util.PointerTo(uint16(53)),
		Type:        util.PointerTo(dns.TypeA),
		Timeout:     util.PointerTo(5 * time.Second),
		Transport:   util.PointerTo(TransportUDP),
		DialContext: (&net.Dialer{}).DialContext,
		Logger:      slog.Default(),
	})
	if err != nil {
		// Should never happen.
		panic(err)
	}

	exchanger := conf.Exchanger
	if exchanger == nil {
		exchanger = NewExchanger(*conf.Transport, conf.DialContext)
	}

	return &Querier{
		port:      *conf.Port,
		qType:     *conf.Type,
		timeout:   *conf.Timeout,
		exchanger: exchanger,
		logger:    conf.Logger,
	}
}

// Normalize returns the fully qualified form of domain, appending the root
// label separator if it is missing.
func Normalize(domain string) string {
	return dns.Fqdn(domain)
}

// Query asks server for the records of domain. Failures are reported in the
// returned result, never as a panic or error return.
func (q *Querier) Query(ctx context.Context, domain string, server netip.Addr) *Result {
	result := &Result{
		Resolver: server.String(),
	}

	name := Normalize(domain)
	addrPort := netip.AddrPortFrom(server, q.port)

	dnsErr := &net.DNSError{
		Name:   name,
		Server: addrPort.String(),
	}

	if _, ok := dns.IsDomainName(name); !ok {
		result.Err = extendDNSError(dnsErr, net.DNSError{
			Err:        ErrInvalidDomain.Error(),
			IsNotFound: true,
		})
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	req := &dns.Msg{}
	req.SetQuestion(name, q.qType)

	q.logger.Debug("Querying resolver",
		slog.String("resolver", result.Resolver),
		slog.String("name", name),
		slog.String("type", dns.Type(q.qType).String()))

	start := time.Now()
	reply, err := q.exchanger.Exchange(ctx, addrPort, req)
	if err != nil {
		q.logger.Debug("Query failed",
			slog.String("resolver", result.Resolver),
			slog.Any("error", err))

		result.Err = err
		return result
	}

	q.logger.Debug("Received reply",
		slog.String("resolver", result.Resolver),
		slog.String("rcode", dns.RcodeToString[reply.Rcode]),
		slog.Int("answers", len(reply.Answer)),
		slog.Duration("rtt", time.Since(start)))

	switch reply.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
		// NXDOMAIN carries no answers and is reported as such.
		result.Answers = reply.Answer
	default:
		result.Err = extendDNSError(dnsErr, net.DNSError{
			Err: fmt.Errorf("unexpected return code %s: %w",
				dns.RcodeToString[reply.Rcode], ErrServerMisbehaving).Error(),
			IsTemporary: reply.Rcode == dns.RcodeServerFailure,
		})
	}

	return result
}
