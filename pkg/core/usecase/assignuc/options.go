// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package assignuc

import (
	"errors"
	"time"
)

// Option is a functional option for the assignment use case.
type Option func(uc *UseCase) error

// WithClock option replaces the wall clock which provides the
// assignment timestamps.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		uc.now = now
		return nil
	}
}
