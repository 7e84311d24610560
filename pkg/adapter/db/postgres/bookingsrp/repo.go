// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bookingsrp implements the repo.Bookings interface over the
// bookings table of a PostgreSQL database.
package bookingsrp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (bookings *Repo) Conn(c repo.Conn) repo.BookingsConnQueryer {
	return connQueryer{Conn: c.(*postgres.Conn)}
}

func (cq connQueryer) Booking(ctx context.Context, bid uuid.UUID) (*model.Booking, error) {
	return Booking(ctx, cq.Conn, bid)
}

func (cq connQueryer) Assign(ctx context.Context, bid, pid uuid.UUID, at time.Time) (int64, error) {
	return Assign(ctx, cq.Conn, bid, pid, at)
}

func (cq connQueryer) Create(ctx context.Context, b *model.Booking) error {
	return Create(ctx, cq.Conn, b)
}

type txQueryer struct {
	*postgres.Tx
}

func (bookings *Repo) Tx(tx repo.Tx) repo.BookingsTxQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx)}
}

func (tq txQueryer) Booking(ctx context.Context, bid uuid.UUID) (*model.Booking, error) {
	return Booking(ctx, tq.Tx, bid)
}

func (tq txQueryer) Assign(ctx context.Context, bid, pid uuid.UUID, at time.Time) (int64, error) {
	return Assign(ctx, tq.Tx, bid, pid, at)
}

func (tq txQueryer) Create(ctx context.Context, b *model.Booking) error {
	return Create(ctx, tq.Tx, b)
}
