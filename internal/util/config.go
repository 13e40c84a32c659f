// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package util

import (
	"fmt"

	"dario.cat/mergo"
)

// ConfigWithDefaults returns a copy of conf with every unset field filled in
// from defaults. A nil conf yields a copy of defaults. A non-nil pointer field
// counts as set even when it points at a zero value, and the memory it points
// at is never written to.
func ConfigWithDefaults[T any](conf, defaults *T) (*T, error) {
	var merged T
	if conf != nil {
		merged = *conf
	}

	if err := mergo.Merge(&merged, defaults, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}

	return &merged, nil
}

// PointerTo returns a pointer to the value v.
func PointerTo[T any](v T) *T {
	return &v
}
