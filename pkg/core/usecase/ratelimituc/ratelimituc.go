// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ratelimituc contains the rate limiting UseCase which gates
// high-frequency operations with fixed-window counters. Each window is
// a discrete bucket of time and has its own counter in the shared
// store, so all service instances observe the same counts.
package ratelimituc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// UseCase represents a rate limiting use case.
type UseCase struct {
	counter repo.Counter

	policy model.LimitPolicy
	now    func() time.Time
}

// New instantiates a rate limiting use case. The default policy is
// model.LimitPolicyFailOpen.
func New(c repo.Counter, opts ...Option) (*UseCase, error) {
	uc := &UseCase{counter: c}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.policy == model.LimitPolicyInvalid {
		uc.policy = model.LimitPolicyFailOpen
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// Allow increments the counter of the current window of key and
// reports if the incremented count is at most max. Windows are aligned
// to multiples of window since the Unix epoch and shorter windows are
// rounded up to one second. When the shared store is unreachable, the
// verdict follows the configured policy.
func (uc *UseCase) Allow(
	ctx context.Context, key string, max int64, window time.Duration,
) bool {
	sec := int64(window / time.Second)
	if sec < 1 {
		sec = 1
	}
	bucket := key + ":" + strconv.FormatInt(uc.now().Unix()/sec, 10)
	n, err := uc.counter.Incr(ctx, bucket, time.Duration(sec)*time.Second)
	if err != nil {
		allow := uc.policy == model.LimitPolicyFailOpen
		log.Warn(
			ctx, "rate limiter is unavailable",
			slog.String("key", key), slog.Bool("allowed", allow),
			log.Err("error", err),
		)
		return allow
	}
	return n <= max
}
