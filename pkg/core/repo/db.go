// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo specifies the interfaces which are consumed by the use
// cases for accessing the persistent and shared state of the system.
// Database tables are accessed through Pool, Conn, and Tx handles,
// while the shared fast key-value store is consumed through the Locker,
// Counter, and Bus interfaces. Implementations live in the adapter
// layer and are injected into the use cases by their constructors.
package repo

import "context"

// ConnHandler is a callback which receives an acquired connection.
type ConnHandler func(context.Context, Conn) error

// Pool represents a pool of database connections. Its Conn method
// acquires a connection, passes it to handler, and releases it back to
// the pool after handler returns.
type Pool interface {
	Conn(ctx context.Context, handler ConnHandler) error
}

// TxHandler is a callback which receives an ongoing transaction.
type TxHandler func(context.Context, Tx) error

// Conn represents a single database connection. It is unsafe to be
// used concurrently. The Tx method begins a transaction, passes it to
// handler, and commits it if handler returns nil. Otherwise (or when
// handler panics), the transaction is rolled back.
type Conn interface {
	Queryer
	Tx(ctx context.Context, handler TxHandler) error

	// IsConn prevents a Tx to mistakenly implement the Conn interface.
	IsConn()
}

// Tx represents a database transaction. Statements which are executed
// in a single transaction observe the ACID properties with the
// READ-COMMITTED isolation level by default.
type Tx interface {
	Queryer

	// IsTx prevents a Conn to mistakenly implement the Tx interface.
	IsTx()
}

// Queryer executes raw SQL statements. It serves the schema
// initialization since repositories provide typed methods for the
// regular use cases.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (count int64, err error)
}
