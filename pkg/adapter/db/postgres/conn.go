package postgres

import (
	"context"
	"fmt"

	"github.com/momeni/rentdispatch/pkg/core/repo"
	"gorm.io/gorm"
)

type Conn struct {
	*gorm.DB
}

type TxHandler = repo.TxHandler

// Tx begins a transaction and runs f with it. The transaction is
// committed if f returns nil and is rolled back if f fails or panics.
func (c *Conn) Tx(ctx context.Context, f TxHandler) (err error) {
	tx := c.DB.WithContext(ctx).Begin()
	if err = tx.Error; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
		if err != nil {
			if err2 := tx.Rollback().Error; err2 != nil {
				err = fmt.Errorf("%w, rollback: %w", err, err2)
			}
			return
		}
		if err = tx.Commit().Error; err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}()
	return f(ctx, &Tx{DB: tx})
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(c.DB.WithContext(ctx), sql, args...)
}

func (c *Conn) IsConn() {
}

func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}

func exec(gdb *gorm.DB, sql string, args ...any) (int64, error) {
	res := gdb.Exec(sql, args...)
	if err := res.Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
