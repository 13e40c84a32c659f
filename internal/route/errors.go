// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package route discovers the default gateway from the kernel routing table.
package route

import "errors"

var (
	// ErrNoDefaultGateway is returned when the main routing table has no
	// default route with a gateway.
	ErrNoDefaultGateway = errors.New("no default gateway")
	// ErrUnsupported is returned on platforms without a routing socket.
	ErrUnsupported = errors.New("default gateway discovery is not supported on this platform")
)
