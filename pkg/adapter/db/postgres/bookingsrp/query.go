package bookingsrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"gorm.io/gorm"
)

type gBooking struct {
	BID         uuid.UUID        `gorm:"primaryKey;type:uuid;column:bid"`
	Destination model.Coordinate `gorm:"embedded"`
	Status      string
	PartnerID   *uuid.UUID `gorm:"type:uuid"`
	AssignedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (gb *gBooking) TableName() string {
	return "bookings"
}

func (gb *gBooking) Model() (*model.Booking, error) {
	s, err := model.ParseBookingStatus(gb.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", gb.BID, err)
	}
	return &model.Booking{
		ID:          gb.BID,
		Destination: gb.Destination,
		Status:      s,
		PartnerID:   gb.PartnerID,
		AssignedAt:  gb.AssignedAt,
		CreatedAt:   gb.CreatedAt,
		UpdatedAt:   gb.UpdatedAt,
	}, nil
}

func Booking[Q postgres.Queryer](ctx context.Context, q Q, bid uuid.UUID) (*model.Booking, error) {
	var gb gBooking
	err := q.GORM(ctx).Where("bid = ?", bid).Take(&gb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("booking %s: %w", bid, model.ErrBookingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gb.Model()
}

// Assign updates the bid booking only if it is pending and has no
// partner, so the guard and the write are evaluated atomically.
func Assign[Q postgres.Queryer](
	ctx context.Context, q Q, bid, pid uuid.UUID, at time.Time,
) (int64, error) {
	res := q.GORM(ctx).Model(&gBooking{}).Where(
		"bid = ? AND partner_id IS NULL AND status = ?",
		bid, model.BookingStatusPending.String(),
	).Updates(map[string]any{
		"partner_id":  pid,
		"status":      model.BookingStatusAssigned.String(),
		"assigned_at": at,
		"updated_at":  at,
	})
	if err := res.Error; err != nil {
		return 0, fmt.Errorf("query: %w", err)
	}
	return res.RowsAffected, nil
}

func Create[Q postgres.Queryer](ctx context.Context, q Q, b *model.Booking) error {
	if err := b.Status.Validate(); err != nil {
		return err
	}
	gb := gBooking{
		BID:         b.ID,
		Destination: b.Destination,
		Status:      b.Status.String(),
		PartnerID:   b.PartnerID,
		AssignedAt:  b.AssignedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if err := q.GORM(ctx).Create(&gb).Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = gb.CreatedAt, gb.UpdatedAt
	return nil
}
