// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres implements the repo.Pool, repo.Conn, and repo.Tx
// interfaces over GORM with the pgx based PostgreSQL driver. Its sub
// packages implement the bookings, partners, and schema repositories.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool is a pool of database connections.
type Pool struct {
	*gorm.DB
}

// NewPool connects to the url database and verifies the connection
// by acquiring and releasing one connection. GORM warnings (such as
// slow queries) are reported through the default slog logger.
func NewPool(ctx context.Context, url string) (*Pool, error) {
	gdb, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	pool := &Pool{DB: gdb}
	err = pool.Conn(ctx, NoOpConnHandler)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return pool, nil
}

type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	log.Warn(
		context.Background(), "gorm",
		slog.String("detail", fmt.Sprintf(format, args...)),
	)
}

type ConnHandler = repo.ConnHandler

// NoOpConnHandler ignores its connection.
func NoOpConnHandler(context.Context, repo.Conn) error {
	return nil
}

// Conn acquires a dedicated connection for the f handler.
func (p *Pool) Conn(ctx context.Context, f ConnHandler) error {
	return p.DB.WithContext(ctx).Connection(func(c *gorm.DB) error {
		return f(ctx, &Conn{DB: c})
	})
}

// Close closes all connections of the pool.
func (p *Pool) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
