// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrationuc contains the database initialization use case.
// It creates the tables of the latest schema version and fills them
// with development or production suitable data rows.
package migrationuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// InitDBUseCase represents the database initialization use case. It may
// be used to initialize database with development or production
// suitable data as asked by the InitDev and InitProd methods.
type InitDBUseCase struct {
	pool       repo.Pool
	schemaRepo repo.Schema
}

// NewInitDB creates an InitDBUseCase instance which connects to the
// target database using p (which should be authenticated with a role
// that may create tables) and creates them using the s repository.
func NewInitDB(p repo.Pool, s repo.Schema) *InitDBUseCase {
	return &InitDBUseCase{pool: p, schemaRepo: s}
}

// InitProd creates all tables and indices in a single transaction,
// leaving them empty.
func (iduc *InitDBUseCase) InitProd(ctx context.Context) error {
	return iduc.initDB(
		ctx, "prod",
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitProdSchema(ctx)
		},
	)
}

// InitDev creates all tables and indices in a single transaction and
// fills them with sample partners and pending bookings.
func (iduc *InitDBUseCase) InitDev(ctx context.Context) error {
	return iduc.initDB(
		ctx, "dev",
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitDevSchema(ctx)
		},
	)
}

func (iduc *InitDBUseCase) initDB(
	ctx context.Context,
	mode string,
	initializer func(context.Context, repo.SchemaInitializer) error,
) error {
	err := iduc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return initializer(ctx, iduc.schemaRepo.Tx(tx))
		})
	})
	if err != nil {
		return fmt.Errorf("initializing %s schema: %w", mode, err)
	}
	log.Info(ctx, "database is initialized", slog.String("mode", mode))
	return nil
}
