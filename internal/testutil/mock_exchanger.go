// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package testutil

import (
	"context"
	"net/netip"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/mock"
)

// MockExchanger is a mock implementation of mdq.Exchanger.
type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) Exchange(ctx context.Context, server netip.AddrPort, req *dns.Msg) (*dns.Msg, error) {
	args := m.Called(ctx, server, req)
	reply, _ := args.Get(0).(*dns.Msg)
	return reply, args.Error(1)
}

// Reply returns a successful reply carrying the given answers.
func Reply(answers ...dns.RR) *dns.Msg {
	reply := &dns.Msg{}
	reply.Response = true
	reply.Rcode = dns.RcodeSuccess
	reply.Answer = answers
	return reply
}

// RR parses a resource record in zone file format, panicking on error.
func RR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(err)
	}
	return rr
}
