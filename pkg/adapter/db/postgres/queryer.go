package postgres

import (
	"context"

	"github.com/momeni/rentdispatch/pkg/core/repo"
	"gorm.io/gorm"
)

// Queryer is the type constraint of the generic query functions of
// repositories, so they can be shared by connections and transactions.
type Queryer interface {
	*Conn | *Tx
	repo.Queryer
	GORM(ctx context.Context) *gorm.DB
}
