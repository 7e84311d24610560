// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ratelimituc

import (
	"errors"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

// Option is a functional option for the rate limiting use case.
type Option func(uc *UseCase) error

// WithPolicy option configures the verdict of Allow when the shared
// store is unreachable.
func WithPolicy(p model.LimitPolicy) Option {
	return func(uc *UseCase) error {
		if err := p.Validate(); err != nil {
			return err
		}
		if uc.policy != model.LimitPolicyInvalid {
			return errors.New("policy is already configured")
		}
		uc.policy = p
		return nil
	}
}

// WithClock option replaces the wall clock which selects the current
// window. It is useful for tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
