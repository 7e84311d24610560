// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

// Locker manages mutual-exclusion locks in a shared store, so they are
// respected by all service instances.
type Locker interface {
	// Acquire atomically creates the key lock, expiring after ttl, if
	// no unexpired lock exists for it. The returned token identifies
	// this acquisition and must be presented for its release.
	// An error wrapping model.ErrLockBusy is returned if the lock is
	// held by another caller. Other errors indicate that the shared
	// store could not be used.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)

	// Release atomically deletes the key lock if it is still held by
	// token. It is a no-op if the lock has expired or is held by
	// another token.
	Release(ctx context.Context, key, token string) error
}

// Counter keeps expiring counters in a shared store.
type Counter interface {
	// Incr increments the key counter and returns its new value.
	// The counter expires after window since its first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Bus is a best-effort pub/sub bus. Messages are delivered at-most-once
// to the subscriptions which exist at the time of their publication.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe creates a new subscription on channels. It returns after
	// the subscription is confirmed, so messages which are published
	// afterwards are observed by it. Each subscription is owned by its
	// caller and must be closed by it.
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
}

// Subscription receives the messages of a Bus.
type Subscription interface {
	// Messages returns a channel which is closed after Close is called.
	Messages() <-chan model.Message

	Close() error
}
