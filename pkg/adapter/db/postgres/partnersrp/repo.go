// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package partnersrp implements the repo.Partners interface over the
// partners table of a PostgreSQL database.
package partnersrp

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

func (partners *Repo) Conn(c repo.Conn) repo.PartnersConnQueryer {
	return connQueryer{Conn: c.(*postgres.Conn)}
}

func (cq connQueryer) OnlinePartners(ctx context.Context) ([]model.Partner, error) {
	return OnlinePartners(ctx, cq.Conn)
}

func (cq connQueryer) Partner(ctx context.Context, pid uuid.UUID) (*model.Partner, error) {
	return Partner(ctx, cq.Conn, pid)
}

func (cq connQueryer) UpdateLocation(
	ctx context.Context, pid uuid.UUID, c model.Coordinate, at time.Time,
) (*model.Partner, error) {
	return UpdateLocation(ctx, cq.Conn, pid, c, at)
}

func (cq connQueryer) SetStatus(
	ctx context.Context, pid uuid.UUID, s model.PartnerStatus,
	keepSuspended bool,
) (*model.Partner, error) {
	return SetStatus(ctx, cq.Conn, pid, s, keepSuspended)
}

func (cq connQueryer) Create(ctx context.Context, p *model.Partner) error {
	return Create(ctx, cq.Conn, p)
}

type txQueryer struct {
	*postgres.Tx
}

func (partners *Repo) Tx(tx repo.Tx) repo.PartnersTxQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx)}
}

func (tq txQueryer) OnlinePartners(ctx context.Context) ([]model.Partner, error) {
	return OnlinePartners(ctx, tq.Tx)
}

func (tq txQueryer) Partner(ctx context.Context, pid uuid.UUID) (*model.Partner, error) {
	return Partner(ctx, tq.Tx, pid)
}

func (tq txQueryer) UpdateLocation(
	ctx context.Context, pid uuid.UUID, c model.Coordinate, at time.Time,
) (*model.Partner, error) {
	return UpdateLocation(ctx, tq.Tx, pid, c, at)
}

func (tq txQueryer) SetStatus(
	ctx context.Context, pid uuid.UUID, s model.PartnerStatus,
	keepSuspended bool,
) (*model.Partner, error) {
	return SetStatus(ctx, tq.Tx, pid, s, keepSuspended)
}

func (tq txQueryer) Create(ctx context.Context, p *model.Partner) error {
	return Create(ctx, tq.Tx, p)
}
