// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package assignuc contains the assignment UseCase which binds the
// nearest online partner to a pending booking.
//
// Concurrent attempts to assign the same booking are serialized by a
// per-booking distributed lock, so unrelated bookings never contend.
// The write is conditional on the booking being still unassigned, so
// a degraded lock (or an overrun TTL) may cause a Conflict outcome but
// never binds two partners to one booking.
package assignuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/lockuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/matchuc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/momeni/rentdispatch/pkg/core/usecase/assignuc")

// UseCase represents an assignment use case. It holds a database
// connection pool, the bookings repository, and the lock, matching,
// and events use cases which it coordinates.
type UseCase struct {
	pool       repo.Pool
	bookingsrp repo.Bookings
	locks      *lockuc.UseCase
	matcher    *matchuc.UseCase
	events     *eventuc.UseCase

	now func() time.Time
}

// New instantiates an assignment use case.
func New(
	p repo.Pool,
	b repo.Bookings,
	locks *lockuc.UseCase,
	matcher *matchuc.UseCase,
	events *eventuc.UseCase,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{
		pool:       p,
		bookingsrp: b,
		locks:      locks,
		matcher:    matcher,
		events:     events,
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// Assign binds the nearest online partner to the bid booking.
//
// Business rejections are reported as 409 cerr.Error instances with
// NOT_FOUND, ALREADY_ASSIGNED, NO_ONLINE_PARTNER, or CONFLICT codes
// and a busy lock is reported as a 423 LOCK_BUSY error. None of them
// is retried here. After a successful assignment, a booking-confirmed
// event is published on a best-effort basis.
func (uc *UseCase) Assign(ctx context.Context, bid uuid.UUID) (a *model.Assignment, err error) {
	ctx = log.With(ctx, log.ID("booking", bid))
	ctx, span := tracer.Start(ctx, "assign")
	span.SetAttributes(attribute.String("booking.id", bid.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = uc.locks.WithLock(ctx, model.AssignLockKey(bid), func(ctx context.Context) error {
		return uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) (err error) {
			a, err = uc.assign(ctx, c, bid)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "assigned partner to booking",
		log.ID("partner", a.PartnerID),
		slog.Float64("distance_km", a.DistanceKm),
	)
	uc.events.Publish(ctx, model.BookingConfirmed{
		BookingID:  a.BookingID,
		PartnerID:  a.PartnerID,
		Status:     model.BookingStatusAssigned,
		AssignedAt: a.AssignedAt,
	})
	return a, nil
}

// assign is the critical section of Assign. It must be called while
// the booking lock is held.
func (uc *UseCase) assign(
	ctx context.Context, c repo.Conn, bid uuid.UUID,
) (*model.Assignment, error) {
	q := uc.bookingsrp.Conn(c)
	b, err := q.Booking(ctx, bid)
	switch {
	case errors.Is(err, model.ErrBookingNotFound):
		return nil, cerr.Conflict(cerr.CodeNotFound, err)
	case err != nil:
		return nil, fmt.Errorf("finding booking: %w", err)
	case !b.Assignable():
		return nil, cerr.Conflict(cerr.CodeAlreadyAssigned, model.ErrAlreadyAssigned)
	}
	m, err := uc.matcher.SelectPartner(ctx, c, b.Destination)
	if err != nil {
		return nil, err
	}
	at := uc.now().UTC().Truncate(time.Microsecond)
	n, err := q.Assign(ctx, bid, m.Partner.ID, at)
	if err != nil {
		return nil, fmt.Errorf("assigning partner: %w", err)
	}
	if n == 0 {
		return nil, cerr.Conflict(cerr.CodeConflict, model.ErrAssignConflict)
	}
	return &model.Assignment{
		BookingID:  bid,
		PartnerID:  m.Partner.ID,
		DistanceKm: m.DistanceKm,
		AssignedAt: at,
	}, nil
}
