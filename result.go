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
	"fmt"
	"io"
	"strings"

	"github.com/miekg/dns"
)

var _ io.WriterTo = (*Result)(nil)

// Result is the outcome of querying a single resolver.
type Result struct {
	// Resolver identifies the source of the answers, usually the resolver's
	// IP address.
	Resolver string
	// Answers holds the answer section in the order the resolver sent it.
	Answers []dns.RR
	// Err is set if the query failed.
	Err error
}

// Lines renders the result, one line per answer, each prefixed with the
// resolver.
func (r *Result) Lines() []string {
	if r.Err != nil {
		return []string{fmt.Sprintf("%s: Error %s", r.Resolver, r.Err)}
	}

	if len(r.Answers) == 0 {
		return []string{fmt.Sprintf("%s: No response", r.Resolver)}
	}

	lines := make([]string, 0, len(r.Answers))
	for _, rr := range r.Answers {
		lines = append(lines, fmt.Sprintf("%s: %s", r.Resolver, formatAnswer(rr)))
	}

	return lines
}

// WriteTo writes all lines of the result with a single call to w.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, line := range r.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func formatAnswer(rr dns.RR) string {
	switch rr := rr.(type) {
	case *dns.A:
		return "IPv4 " + rr.A.String()
	case *dns.AAAA:
		return "IPv6 " + rr.AAAA.String()
	case *dns.CNAME:
		return "CNAME " + rr.Target
	default:
		hdr := rr.Header()
		rdata := strings.TrimPrefix(rr.String(), hdr.String())
		return dns.Type(hdr.Rrtype).String() + " " + rdata
	}
}
