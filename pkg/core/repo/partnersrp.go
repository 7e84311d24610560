package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/model"
)

type PartnersConnQueryer interface {
	PartnersQueryer
}

type PartnersTxQueryer interface {
	PartnersQueryer
}

type PartnersQueryer interface {
	// OnlinePartners lists partners with the online status, ordered by
	// their ids, so callers observe a stable iteration order.
	OnlinePartners(ctx context.Context) ([]model.Partner, error)

	// Partner finds the pid partner, returning an error wrapping
	// model.ErrPartnerNotFound if it does not exist.
	Partner(ctx context.Context, pid uuid.UUID) (*model.Partner, error)

	// UpdateLocation stores c as the last reported position of the pid
	// partner in a single-row update and returns the updated partner.
	UpdateLocation(
		ctx context.Context, pid uuid.UUID, c model.Coordinate, at time.Time,
	) (*model.Partner, error)

	// SetStatus changes the status of the pid partner in a single-row
	// update. If keepSuspended is true, a suspended partner is left
	// untouched and an error wrapping model.ErrPartnerSuspended is
	// returned. The guard is evaluated by the update itself, so
	// a concurrent suspension is never overwritten.
	SetStatus(
		ctx context.Context, pid uuid.UUID, s model.PartnerStatus,
		keepSuspended bool,
	) (*model.Partner, error)

	Create(ctx context.Context, p *model.Partner) error
}

type Partners interface {
	Conn(Conn) PartnersConnQueryer
	Tx(Tx) PartnersTxQueryer
}
