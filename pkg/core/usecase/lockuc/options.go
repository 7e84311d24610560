// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lockuc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

// Option is a functional option for the lock use case.
type Option func(uc *UseCase) error

// WithTTL option configures the expiry of the acquired locks, which
// is also the deadline of their critical sections.
func WithTTL(ttl time.Duration) Option {
	return func(uc *UseCase) error {
		if ttl < time.Millisecond {
			return fmt.Errorf("ttl (%v) is shorter than a millisecond", ttl)
		}
		if uc.ttl != 0 {
			return errors.New("ttl is already configured")
		}
		uc.ttl = ttl
		return nil
	}
}

// WithPolicy option configures the behavior of WithLock when the
// shared store is unreachable.
func WithPolicy(p model.LockPolicy) Option {
	return func(uc *UseCase) error {
		if err := p.Validate(); err != nil {
			return err
		}
		if uc.policy != model.LockPolicyInvalid {
			return errors.New("policy is already configured")
		}
		uc.policy = p
		return nil
	}
}
