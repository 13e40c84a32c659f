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
	"errors"
	"net"

	"dario.cat/mergo"
	"github.com/noisysockets/mdq/internal/route"
)

var (
	ErrInvalidDomain        = errors.New("invalid domain name")
	ErrServerMisbehaving    = errors.New("server misbehaving")
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrQueryPanicked        = errors.New("query panicked")

	// ErrNoDefaultGateway is returned when the routing table has no default
	// route with a gateway.
	ErrNoDefaultGateway = route.ErrNoDefaultGateway
	// ErrUnsupported is returned when gateway discovery is not available on
	// this platform.
	ErrUnsupported = route.ErrUnsupported
)

// extendDNSError fills in the unset fields of dst from src.
func extendDNSError(dst *net.DNSError, src net.DNSError) *net.DNSError {
	if err := mergo.Merge(dst, src); err != nil {
		panic(err)
	}
	return dst
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
