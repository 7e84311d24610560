// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package partnersuc

import (
	"errors"
	"fmt"
	"time"
)

// Option is a functional option for the partners use case.
type Option func(uc *UseCase) error

// WithGPSRateLimit option allows each partner to report at most limit
// locations in every window.
func WithGPSRateLimit(limit int64, window time.Duration) Option {
	return func(uc *UseCase) error {
		if limit <= 0 {
			return fmt.Errorf("limit (%d) is not positive", limit)
		}
		if window < time.Second {
			return fmt.Errorf("window (%v) is shorter than a second", window)
		}
		if uc.gpsLimit != 0 {
			return errors.New("gps rate limit is already configured")
		}
		uc.gpsLimit, uc.gpsWindow = limit, window
		return nil
	}
}

// WithClock option replaces the wall clock which provides the
// last GPS report timestamps.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
