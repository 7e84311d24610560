// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migration creates the tables of the latest database schema
// version. It implements the repo.Schema interface, so the db init-dev
// and db init-prod commands may create tables and fill them with the
// development or production suitable initial data.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres/bookingsrp"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres/partnersrp"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// Tables contains the DDL statements of the v1.0 schema.
//
// A booking has no partner while it is pending and keeps its partner
// afterwards, unless it is cancelled. The partners location index is
// not used by the haversine based matching, but allows bounding box
// queries for large partner pools.
const Tables = `
CREATE TABLE IF NOT EXISTS partners (
	pid UUID PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('online', 'offline', 'suspended')),
	lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
	lon DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
	city TEXT NOT NULL DEFAULT '',
	last_gps_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS partners_status_idx ON partners (status);
CREATE INDEX IF NOT EXISTS partners_location_idx
	ON partners USING gist (point(lon, lat));
CREATE TABLE IF NOT EXISTS bookings (
	bid UUID PRIMARY KEY,
	lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
	lon DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
	status TEXT NOT NULL
		CHECK (status IN ('PENDING', 'ASSIGNED', 'CONFIRMED', 'CANCELLED')),
	partner_id UUID REFERENCES partners (pid),
	assigned_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (status = 'CANCELLED' OR (partner_id IS NULL) = (status = 'PENDING'))
);
`

// Repo implements the repo.Schema interface.
type Repo struct {
}

// New creates a schema management repository.
func New() *Repo {
	return &Repo{}
}

// Tx creates an Initializer which uses the tx transaction.
func (r *Repo) Tx(tx repo.Tx) repo.SchemaInitializer {
	return &Initializer{tx: tx.(*postgres.Tx)}
}

// Initializer creates the tables in the schema which is selected by
// the search_path of its transaction. Caller is responsible to commit
// the transaction in order to persist the initialization results.
type Initializer struct {
	tx *postgres.Tx
}

// InitProdSchema creates the tables and indices without any rows.
func (in *Initializer) InitProdSchema(ctx context.Context) error {
	if _, err := in.tx.Exec(ctx, Tables); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// InitDevSchema creates the tables and fills them with a few partners
// and pending bookings around Mumbai.
func (in *Initializer) InitDevSchema(ctx context.Context) error {
	if err := in.InitProdSchema(ctx); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, p := range DevPartners(now) {
		if err := partnersrp.Create(ctx, in.tx, &p); err != nil {
			return fmt.Errorf("creating partner %q: %w", p.Name, err)
		}
	}
	for _, b := range DevBookings() {
		if err := bookingsrp.Create(ctx, in.tx, &b); err != nil {
			return fmt.Errorf("creating booking %s: %w", b.ID, err)
		}
	}
	return nil
}

// DevPartners returns the sample partners of a development database.
// Their ids are fixed, so tokens which are issued for them survive
// a database reinitialization.
func DevPartners(now time.Time) []model.Partner {
	return []model.Partner{
		{
			ID:        uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000001"),
			Name:      "Andheri Wheels",
			Status:    model.PartnerStatusOnline,
			Location:  model.Coordinate{Lat: 19.2, Lon: 72.82},
			City:      "Mumbai",
			LastGPSAt: &now,
		},
		{
			ID:        uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000002"),
			Name:      "Goregaon Rentals",
			Status:    model.PartnerStatusOnline,
			Location:  model.Coordinate{Lat: 19.18, Lon: 72.80},
			City:      "Mumbai",
			LastGPSAt: &now,
		},
		{
			ID:       uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000003"),
			Name:     "Borivali Bikes",
			Status:   model.PartnerStatusOffline,
			Location: model.Coordinate{Lat: 19.203, Lon: 72.828},
			City:     "Mumbai",
		},
		{
			ID:       uuid.MustParse("a1f3c5e0-0000-4000-8000-000000000004"),
			Name:     "Bandra Motors",
			Status:   model.PartnerStatusSuspended,
			Location: model.Coordinate{Lat: 19.06, Lon: 72.83},
			City:     "Mumbai",
		},
	}
}

// DevBookings returns the sample pending bookings of a development
// database.
func DevBookings() []model.Booking {
	return []model.Booking{
		{
			ID:          uuid.MustParse("b0000000-0000-4000-8000-000000000001"),
			Destination: model.Coordinate{Lat: 19.203, Lon: 72.828},
			Status:      model.BookingStatusPending,
		},
		{
			ID:          uuid.MustParse("b0000000-0000-4000-8000-000000000002"),
			Destination: model.Coordinate{Lat: 19.07, Lon: 72.87},
			Status:      model.BookingStatusPending,
		},
	}
}
