// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package dnstest runs a scripted DNS server on the loopback interface.
package dnstest

import (
	"errors"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Response is how the server answers a single question.
type Response struct {
	// Answers is copied into the answer section.
	Answers []dns.RR
	// Rcode is the response code, defaults to NOERROR.
	Rcode int
	// Drop causes the request to go unanswered.
	Drop bool
}

// Server is a DNS server that answers over UDP and TCP on the same port.
// Questions without a scripted response are answered with NXDOMAIN.
type Server struct {
	// Addr is the address the server listens on.
	Addr netip.AddrPort

	responses map[string]*Response
	udp       *dns.Server
	tcp       *dns.Server
}

// NewServer starts a server on a random loopback port.
func NewServer(responses map[string]*Response) (*Server, error) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", pc.LocalAddr().String())
	if err != nil {
		_ = pc.Close()
		return nil, err
	}

	addr := pc.LocalAddr().(*net.UDPAddr).AddrPort()

	s := &Server{
		Addr:      netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port()),
		responses: responses,
	}

	started := make(chan struct{}, 2)
	notify := func() { started <- struct{}{} }

	s.udp = &dns.Server{PacketConn: pc, Handler: dns.HandlerFunc(s.handle), NotifyStartedFunc: notify}
	s.tcp = &dns.Server{Listener: l, Handler: dns.HandlerFunc(s.handle), NotifyStartedFunc: notify}

	go func() { _ = s.udp.ActivateAndServe() }()
	go func() { _ = s.tcp.ActivateAndServe() }()

	timeout := time.After(5 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-timeout:
			s.Close()
			return nil, errors.New("dns test server did not start")
		}
	}

	return s, nil
}

// Close stops the server.
func (s *Server) Close() {
	_ = s.udp.Shutdown()
	_ = s.tcp.Shutdown()
}

func (s *Server) handle(w dns.ResponseWriter, req *dns.Msg) {
	if len(req.Question) != 1 {
		reply := &dns.Msg{}
		reply.SetRcode(req, dns.RcodeFormatError)
		_ = w.WriteMsg(reply)
		return
	}

	q := req.Question[0]
	resp, ok := s.responses[Key(q.Name, q.Qtype)]
	if !ok {
		reply := &dns.Msg{}
		reply.SetRcode(req, dns.RcodeNameError)
		_ = w.WriteMsg(reply)
		return
	}

	if resp.Drop {
		return
	}

	reply := &dns.Msg{}
	reply.SetRcode(req, resp.Rcode)
	reply.RecursionAvailable = true
	reply.Answer = append(reply.Answer, resp.Answers...)
	_ = w.WriteMsg(reply)
}

// Key returns the response map key for a question.
func Key(name string, qtype uint16) string {
	return strings.ToLower(dns.Fqdn(name)) + "/" + strconv.FormatUint(uint64(qtype), 10)
}
