// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lockuc contains the lock UseCase which runs critical sections
// under distributed mutual-exclusion locks. Locks are kept in a shared
// store (through the repo.Locker interface), so all service instances
// respect them. Each lock has a TTL which bounds the duration of its
// critical section, so a crashed holder cannot keep a key locked.
//
// When the shared store is unreachable, the configured lock policy
// decides whether the critical section fails (strict) or runs without
// mutual exclusion (degraded).
package lockuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// releaseTimeout bounds the release of a lock. Release is attempted
// even if the critical section context is cancelled.
const releaseTimeout = 2 * time.Second

// UseCase represents a lock use case. It holds the Locker repository
// and the lock settings.
type UseCase struct {
	locker repo.Locker

	ttl    time.Duration
	policy model.LockPolicy
}

// New instantiates a lock use case. The default TTL is 5 seconds and
// the default policy is model.LockPolicyStrict.
func New(l repo.Locker, opts ...Option) (*UseCase, error) {
	uc := &UseCase{locker: l}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.ttl == 0 {
		uc.ttl = 5 * time.Second
	}
	if uc.policy == model.LockPolicyInvalid {
		uc.policy = model.LockPolicyStrict
	}
	return uc, nil
}

// TTL returns the configured lock TTL.
func (uc *UseCase) TTL() time.Duration {
	return uc.ttl
}

// WithLock acquires the key lock, runs fn, and releases the lock.
// The release happens even if fn fails or panics. The context which is
// passed to fn expires with the lock TTL, so a slow critical section
// is cancelled instead of overrunning its mutual exclusion.
//
// A busy lock is reported as a cerr.Locked error without running fn.
// If the lock could not be acquired for other reasons, a strict policy
// returns an error while a degraded policy runs fn without the lock.
func (uc *UseCase) WithLock(
	ctx context.Context, key string, fn func(context.Context) error,
) error {
	token, err := uc.locker.Acquire(ctx, key, uc.ttl)
	switch {
	case errors.Is(err, model.ErrLockBusy):
		return cerr.Locked(err)
	case err != nil:
		if uc.policy == model.LockPolicyStrict {
			return fmt.Errorf("acquiring %q lock: %w", key, err)
		}
		log.Warn(
			ctx, "running critical section without lock",
			slog.String("key", key), log.Err("error", err),
		)
		return uc.run(ctx, fn)
	}
	defer uc.release(ctx, key, token)
	return uc.run(ctx, fn)
}

func (uc *UseCase) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.ttl)
	defer cancel()
	return fn(ctx)
}

func (uc *UseCase) release(ctx context.Context, key, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := uc.locker.Release(ctx, key, token); err != nil {
		log.Error(
			ctx, "failed to release lock, it expires after TTL",
			slog.String("key", key), log.Err("error", err),
		)
	}
}
