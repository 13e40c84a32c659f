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
	"net/netip"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// Attribute is a single routing attribute (struct rtattr) of a route message.
type Attribute struct {
	Type uint16
	Data []byte
}

// Message is a decoded routing table entry (struct rtmsg followed by its
// attributes).
type Message struct {
	Family     uint8
	DstLen     uint8
	SrcLen     uint8
	TOS        uint8
	Table      uint8
	Protocol   uint8
	Scope      uint8
	Type       uint8
	Flags      uint32
	Attributes []Attribute
}

// MarshalBinary encodes the message header and attributes in netlink wire
// format.
func (m *Message) MarshalBinary() ([]byte, error) {
	b := make([]byte, unix.SizeofRtMsg)
	b[0] = m.Family
	b[1] = m.DstLen
	b[2] = m.SrcLen
	b[3] = m.TOS
	b[4] = m.Table
	b[5] = m.Protocol
	b[6] = m.Scope
	b[7] = m.Type
	nlenc.PutUint32(b[8:12], m.Flags)

	if len(m.Attributes) == 0 {
		return b, nil
	}

	ae := netlink.NewAttributeEncoder()
	for _, attr := range m.Attributes {
		ae.Bytes(attr.Type, attr.Data)
	}

	attrs, err := ae.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode route attributes: %w", err)
	}

	return append(b, attrs...), nil
}

// ParseMessage decodes a route message from the payload of an RTM_NEWROUTE
// netlink message.
func ParseMessage(b []byte) (*Message, error) {
	if len(b) < unix.SizeofRtMsg {
		return nil, fmt.Errorf("route message too short: %d bytes", len(b))
	}

	m := &Message{
		Family:   b[0],
		DstLen:   b[1],
		SrcLen:   b[2],
		TOS:      b[3],
		Table:    b[4],
		Protocol: b[5],
		Scope:    b[6],
		Type:     b[7],
		Flags:    nlenc.Uint32(b[8:12]),
	}

	ad, err := netlink.NewAttributeDecoder(b[unix.SizeofRtMsg:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode route attributes: %w", err)
	}

	for ad.Next() {
		m.Attributes = append(m.Attributes, Attribute{
			Type: ad.Type(),
			Data: ad.Bytes(),
		})
	}
	if err := ad.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode route attributes: %w", err)
	}

	return m, nil
}

// Gateway returns the gateway address of a route in the main routing table.
// Routes in any other table never have a gateway. When more than one gateway
// attribute is present the last one that decodes as an IPv4 or IPv6 address
// is returned.
func (m *Message) Gateway() (netip.Addr, bool) {
	if m.Table != unix.RT_TABLE_MAIN {
		return netip.Addr{}, false
	}

	var gateway netip.Addr
	for _, attr := range m.Attributes {
		if attr.Type != unix.RTA_GATEWAY {
			continue
		}

		// Only 4 and 16 byte payloads are valid addresses.
		if addr, ok := netip.AddrFromSlice(attr.Data); ok {
			gateway = addr
		}
	}

	return gateway, gateway.IsValid()
}

// Priority returns the route metric. Routes without an RTA_PRIORITY attribute
// have metric 0.
func (m *Message) Priority() uint32 {
	var priority uint32
	for _, attr := range m.Attributes {
		if attr.Type == unix.RTA_PRIORITY && len(attr.Data) == 4 {
			priority = nlenc.Uint32(attr.Data)
		}
	}

	return priority
}

// OutputInterface returns the index of the interface the route leaves through.
func (m *Message) OutputInterface() (int, bool) {
	for _, attr := range m.Attributes {
		if attr.Type == unix.RTA_OIF && len(attr.Data) == 4 {
			return int(nlenc.Uint32(attr.Data)), true
		}
	}

	return 0, false
}
