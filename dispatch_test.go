// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mdq_test

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noisysockets/mdq"
	"github.com/noisysockets/mdq/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// syncBuffer is safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSuffix(b.buf.String(), "\n"), "\n")
}

func addrPort(s string) netip.AddrPort {
	return netip.AddrPortFrom(netip.MustParseAddr(s), 53)
}

func TestDispatch(t *testing.T) {
	t.Run("No Response", func(t *testing.T) {
		ex := new(testutil.MockExchanger)
		ex.On("Exchange", mock.Anything, addrPort("9.9.9.9"), mock.Anything).Return(testutil.Reply(), nil)

		var out syncBuffer
		d := mdq.NewDispatcher(&mdq.DispatcherConfig{
			Query:  &mdq.QueryConfig{Exchanger: ex},
			Output: &out,
		})

		d.Dispatch(context.Background(), "example.com", []netip.Addr{netip.MustParseAddr("9.9.9.9")})

		require.Equal(t, []string{"9.9.9.9: No response"}, out.Lines())
	})

	t.Run("IPv4", func(t *testing.T) {
		ex := new(testutil.MockExchanger)
		ex.On("Exchange", mock.Anything, addrPort("8.8.8.8"), mock.Anything).
			Return(testutil.Reply(testutil.RR("example.com. 300 IN A 192.0.2.1")), nil)

		var out syncBuffer
		d := mdq.NewDispatcher(&mdq.DispatcherConfig{
			Query:  &mdq.QueryConfig{Exchanger: ex},
			Output: &out,
		})

		d.Dispatch(context.Background(), "example.com", []netip.Addr{netip.MustParseAddr("8.8.8.8")})

		require.Contains(t, out.Lines(), "8.8.8.8: IPv4 192.0.2.1")
	})

	t.Run("Isolation", func(t *testing.T) {
		ex := new(testutil.MockExchanger)
		ex.On("Exchange", mock.Anything, addrPort("1.1.1.1"), mock.Anything).
			Return(nil, errors.New("connection refused"))
		ex.On("Exchange", mock.Anything, addrPort("9.9.9.9"), mock.Anything).
			Return(testutil.Reply(testutil.RR("example.com. 300 IN A 192.0.2.9")), nil)
		ex.On("Exchange", mock.Anything, addrPort("8.8.8.8"), mock.Anything).
			Run(func(mock.Arguments) {
				panic("boom")
			})

		var out syncBuffer
		d := mdq.NewDispatcher(&mdq.DispatcherConfig{
			Query:  &mdq.QueryConfig{Exchanger: ex},
			Output: &out,
		})

		servers := []netip.Addr{
			netip.MustParseAddr("1.1.1.1"),
			netip.MustParseAddr("8.8.8.8"),
			netip.MustParseAddr("9.9.9.9"),
		}

		results := d.Dispatch(context.Background(), "example.com", servers)
		require.Len(t, results, 3)

		require.ErrorContains(t, results[0].Err, "connection refused")
		require.ErrorIs(t, results[1].Err, mdq.ErrQueryPanicked)
		require.NoError(t, results[2].Err)

		require.ElementsMatch(t, []string{
			"1.1.1.1: Error connection refused",
			"8.8.8.8: Error query panicked: boom",
			"9.9.9.9: IPv4 192.0.2.9",
		}, out.Lines())
	})

	t.Run("Concurrent", func(t *testing.T) {
		// Every exchange blocks until all of them have started.
		servers := mdq.PublicResolvers()

		var started sync.WaitGroup
		started.Add(len(servers))

		ex := new(testutil.MockExchanger)
		ex.On("Exchange", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				started.Done()
				started.Wait()
			}).
			Return(testutil.Reply(testutil.RR("example.com. 300 IN A 192.0.2.1")), nil)

		var out syncBuffer
		d := mdq.NewDispatcher(&mdq.DispatcherConfig{
			Query:  &mdq.QueryConfig{Exchanger: ex},
			Output: &out,
		})

		done := make(chan []*mdq.Result)
		go func() {
			done <- d.Dispatch(context.Background(), "example.com", servers)
		}()

		select {
		case results := <-done:
			require.Len(t, results, len(servers))
			for i, result := range results {
				require.Equal(t, servers[i].String(), result.Resolver)
				require.NoError(t, result.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("dispatch did not complete")
		}

		require.Len(t, out.Lines(), len(servers))
	})
}
