// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the rdweb to instantiate different
// components, from the adapter or use cases layers, using those loaded
// configuration settings.
// These settings may be versioned and maintained by sub-packages.
// However, the parsed and validated configurations should be passed
// to their ultimate components as a series of individual params (for
// the mandatory items) and a series of functional options (for
// the optional items), so they may be validated in the relevant
// end-component such as a UseCase instance.
package config

import (
	"fmt"
	"os"

	"github.com/momeni/rentdispatch/pkg/adapter/config/cfg1"
	"github.com/momeni/rentdispatch/pkg/adapter/config/vers"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
)

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
// Given path must belong to a configuration file which conforms with
// the latest known configuration settings format.
// The corresponding database schema version must also match with the
// latest known database schema version.
func Load(path string) (*cfg1.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is like Load, but takes the configuration file contents.
func Parse(data []byte) (*cfg1.Config, error) {
	v, err := vers.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading versions: %w", err)
	}
	vc := v.Versions
	switch {
	case !cfg1.Version.Compatible(vc.Config):
		return nil, &cerr.VersionError{
			Subject: "config", Expected: cfg1.Version, Actual: vc.Config,
		}
	case vc.Database != postgres.Version:
		return nil, &cerr.VersionError{
			Subject: "database schema", Expected: postgres.Version, Actual: vc.Database,
		}
	}
	c, err := cfg1.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading cfg1.Config: %w", err)
	}
	return c, nil
}
