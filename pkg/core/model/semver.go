// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer is a major.minor.patch version number. It tracks the format
// of the configuration file and the database schema, so an rdweb binary
// can refuse to operate on data which it does not understand.
// A missing minor or patch component is parsed as zero.
type SemVer [3]uint

// UnmarshalText parses text as one to three dot-separated non-negative
// numbers. The sv is left unchanged on errors.
func (sv *SemVer) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ".")
	if len(parts) > 3 {
		return fmt.Errorf("too many components in version %q", text)
	}
	var v SemVer
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return fmt.Errorf("parsing %q component of version: %w", p, err)
		}
		v[i] = uint(n)
	}
	*sv = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (sv SemVer) MarshalText() ([]byte, error) {
	return []byte(sv.String()), nil
}

// String formats sv as major.minor.patch.
func (sv SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", sv[0], sv[1], sv[2])
}

// Compatible reports if a binary which implements the sv version can
// use data in the other version. Major versions must match and the
// other minor version may not be newer than the sv minor version.
func (sv SemVer) Compatible(other SemVer) bool {
	return sv[0] == other[0] && other[1] <= sv[1]
}
