// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vers parses the versions block of configuration files.
// Two versions are tracked, namely the configuration file format and
// the database schema. The versions are parsed before the rest of the
// settings, so the proper format can be selected for them and an
// incompatible file is rejected with a clear error.
package vers

import (
	"fmt"

	"github.com/momeni/rentdispatch/pkg/core/model"
	"gopkg.in/yaml.v3"
)

// Config contains the versions block. It may be embedded inline in
// the configuration structs.
type Config struct {
	Versions Versions `yaml:"versions"`
}

// Versions contains the configuration file and database schema
// versions.
type Versions struct {
	Database model.SemVer `yaml:"database"`
	Config   model.SemVer `yaml:"config"`
}

// Load deserializes the versions block of data, ignoring other fields.
func Load(data []byte) (*Config, error) {
	vc := &Config{}
	if err := yaml.Unmarshal(data, vc); err != nil {
		return nil, err
	}
	return vc, nil
}

// Validate returns an error if the configuration file version may not
// be read by an implementation of the major.minor version.
func (vc *Config) Validate(major, minor uint) error {
	v := vc.Versions.Config
	if !(model.SemVer{major, minor, 0}).Compatible(v) {
		return fmt.Errorf(
			"config version %s is not compatible with v%d.%d",
			v, major, minor,
		)
	}
	return nil
}
