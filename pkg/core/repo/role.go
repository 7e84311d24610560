// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Role is a database role name, without the configured suffix.
// Passwords of roles are kept in a pgpass file as indicated by the
// configuration file.
type Role string

const (
	// AdminRole owns the schema. It is used by the db init-dev and
	// db init-prod commands in order to create tables and indices.
	AdminRole Role = "admin"

	// NormalRole is the unprivileged role which is used by the web
	// server for reading and updating the existing tables.
	NormalRole Role = "rdweb"
)
