// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package eventuc

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the events use case.
type Option func(uc *UseCase) error

// WithRetryHint option configures the reconnection delay which is
// suggested to the push stream clients.
func WithRetryHint(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d < time.Millisecond {
			return fmt.Errorf("retry hint (%v) is shorter than a millisecond", d)
		}
		if uc.retryHint != 0 {
			return errors.New("retry hint is already configured")
		}
		uc.retryHint = d
		return nil
	}
}

// WithKeepalive option configures the interval of the periodic retry
// hints which keep idle push streams alive.
func WithKeepalive(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d <= 0 {
			return fmt.Errorf("keepalive (%v) is not positive", d)
		}
		if uc.keepalive != 0 {
			return errors.New("keepalive is already configured")
		}
		uc.keepalive = d
		return nil
	}
}
