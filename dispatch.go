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
	"io"
	"log/slog"
	"net/netip"
	"os"
	"runtime/debug"
	"sync"

	"github.com/noisysockets/mdq/internal/util"
)

// DispatcherConfig is the configuration for a dispatcher.
type DispatcherConfig struct {
	// Query configures the individual queries.
	Query *QueryConfig
	// Output receives each result as soon as it is available.
	// Defaults to os.Stdout.
	Output io.Writer
	// Logger is used for diagnostics.
	Logger *slog.Logger
}

// Dispatcher queries many resolvers concurrently.
type Dispatcher struct {
	querier *Querier
	logger  *slog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(conf *DispatcherConfig) *Dispatcher {
	conf, err := util.ConfigWithDefaults(conf, &DispatcherConfig{
		Logger: slog.Default(),
	})
	if err != nil {
		// Should never happen.
		panic(err)
	}

	out := conf.Output
	if out == nil {
		out = os.Stdout
	}

	queryConf := QueryConfig{}
	if conf.Query != nil {
		queryConf = *conf.Query
	}
	if queryConf.Logger == nil {
		queryConf.Logger = conf.Logger
	}

	return &Dispatcher{
		querier: NewQuerier(&queryConf),
		logger:  conf.Logger,
		out:     out,
	}
}

// Dispatch queries every server for domain concurrently and waits for all of
// them to finish. Each result is written to the output as one block as soon
// as it is available, so blocks from different servers may appear in any
// order. The returned results are in the same order as servers.
func (d *Dispatcher) Dispatch(ctx context.Context, domain string, servers []netip.Addr) []*Result {
	results := make([]*Result, len(servers))

	var wg sync.WaitGroup
	wg.Add(len(servers))

	for i, server := range servers {
		go func(i int, domain string, server netip.Addr) {
			defer wg.Done()

			result := d.query(ctx, domain, server)
			results[i] = result

			d.emit(result)
		}(i, domain, server)
	}

	wg.Wait()

	return results
}

// query runs a single query, turning a panic into an error result so it
// cannot take down the other queries.
func (d *Dispatcher) query(ctx context.Context, domain string, server netip.Addr) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Query panicked",
				slog.String("resolver", server.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))

			result = &Result{
				Resolver: server.String(),
				Err:      fmt.Errorf("%w: %v", ErrQueryPanicked, r),
			}
		}
	}()

	return d.querier.Query(ctx, domain, server)
}

func (d *Dispatcher) emit(result *Result) {
	d.outMu.Lock()
	defer d.outMu.Unlock()

	if _, err := result.WriteTo(d.out); err != nil {
		d.logger.Warn("Failed to write result",
			slog.String("resolver", result.Resolver),
			slog.Any("error", err))
	}
}
