// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package redis implements the repo.Locker, repo.Counter, and repo.Bus
// interfaces over a Redis server, so all service instances share the
// same locks, rate limiting counters, and pub/sub channels.
//
// Components receive their client as an argument instead of keeping
// a package-level connection, so callers own the client lifecycle and
// tests may point them to a temporary server.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect creates a client with opts and pings its server.
func Connect(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
