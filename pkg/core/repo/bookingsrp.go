package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/model"
)

type BookingsConnQueryer interface {
	BookingsQueryer
}

type BookingsTxQueryer interface {
	BookingsQueryer
}

type BookingsQueryer interface {
	// Booking finds the bid booking, returning an error wrapping
	// model.ErrBookingNotFound if it does not exist.
	Booking(ctx context.Context, bid uuid.UUID) (*model.Booking, error)

	// Assign binds the pid partner to the bid booking and marks it as
	// assigned, only if it is still pending and has no partner at the
	// time of writing. It returns the number of updated rows, so zero
	// means that the guard did not hold.
	Assign(ctx context.Context, bid, pid uuid.UUID, at time.Time) (int64, error)

	Create(ctx context.Context, b *model.Booking) error
}

type Bookings interface {
	Conn(Conn) BookingsConnQueryer
	Tx(Tx) BookingsTxQueryer
}
