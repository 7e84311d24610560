// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"cmp"
	"fmt"
)

// RangeError indicates that the Name setting is outside of its
// [Min, Max] boundaries, or that the boundaries themselves are empty.
type RangeError[T cmp.Ordered] struct {
	Name     string
	Value    T
	Min, Max T
}

// Error implements the error interface.
func (e *RangeError[T]) Error() string {
	if e.Min > e.Max {
		return fmt.Sprintf(
			"%s boundaries are empty: minimum %v is greater than maximum %v",
			e.Name, e.Min, e.Max,
		)
	}
	return fmt.Sprintf(
		"%s (%v) is outside of [%v, %v]", e.Name, e.Value, e.Min, e.Max,
	)
}

// VerifyRange ensures that minb <= maxb and that value, if it is set,
// falls in [minb, maxb]. Out of range values are reported, never
// clamped, so a typo in a config file cannot silently change the
// meaning of a setting.
func VerifyRange[T cmp.Ordered](name string, value *T, minb, maxb T) error {
	if minb > maxb {
		return &RangeError[T]{Name: name, Min: minb, Max: maxb}
	}
	if value == nil || (*value >= minb && *value <= maxb) {
		return nil
	}
	return &RangeError[T]{Name: name, Value: *value, Min: minb, Max: maxb}
}
