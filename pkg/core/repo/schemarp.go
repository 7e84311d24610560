// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// SchemaInitializer creates the tables and indices of the latest schema
// version and fills them with initial data rows. Implementations embed
// the transaction which should be used, so methods take no handles.
type SchemaInitializer interface {
	// InitDevSchema creates tables and fills them with sample partners
	// and bookings which are suitable for development.
	InitDevSchema(ctx context.Context) error

	// InitProdSchema creates tables with no data rows.
	InitProdSchema(ctx context.Context) error
}

// Schema is a repository which manages the database schema.
type Schema interface {
	Tx(Tx) SchemaInitializer
}
