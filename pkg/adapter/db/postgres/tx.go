// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Tx represents an ongoing database transaction. It embeds *gorm.DB,
// so the repository packages may use it like GORM.
type Tx struct {
	*gorm.DB
}

// Exec runs sql with args and returns the number of affected rows.
// Without args, sql may contain multiple semi-colon separated
// statements. Parameters may be written as $1, ?, or @name.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(tx.DB.WithContext(ctx), sql, args...)
}

func (tx *Tx) IsTx() {
}

// GORM returns the embedded *gorm.DB instance, configured to operate
// on the ctx context.
func (tx *Tx) GORM(ctx context.Context) *gorm.DB {
	return tx.DB.WithContext(ctx)
}
