// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the helper types and functions which are
// shared by the configuration versions, such as human-readable
// durations, defaults, and boundary verification.
package settings

import (
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Duration is a time.Duration which is (de)serialized in the
// time.ParseDuration format, like 1m30s or 500ms.
type Duration time.Duration

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// The `d` is only updated if data could be parsed successfully.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// String returns a string representation of d, dropping the zero
// trailing components, e.g., 2m instead of 2m0s.
func (d Duration) String() string {
	s := time.Duration(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// MarshalText implements encoding.TextMarshaler interface.
func (d *Duration) MarshalText() ([]byte, error) {
	if d == nil {
		return nil, errors.New("nil duration")
	}
	return []byte(d.String()), nil
}

// LogValue implements slog.LogValuer and returns a DurationValue if
// this Duration is not nil, otherwise, it returns a StringValue with
// the constant "nil-duration" value.
func (d *Duration) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("nil-duration")
	}
	return slog.DurationValue(time.Duration(*d))
}
