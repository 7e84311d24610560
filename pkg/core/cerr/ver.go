// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"fmt"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

// VersionError indicates that the Subject (like a config file or a
// database schema) has the Actual version while a version which is
// compatible with Expected was required. It is reported while the
// service boots, so it has no HTTP status code.
type VersionError struct {
	Subject  string
	Expected model.SemVer
	Actual   model.SemVer
}

func (e *VersionError) Error() string {
	return fmt.Sprintf(
		"%s version is v%s, but v%s is supported",
		e.Subject, e.Actual, e.Expected,
	)
}
