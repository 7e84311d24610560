// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bookingsuc contains the bookings UseCase which lets clients
// refresh their view of a booking, for example, after they receive a
// booking-confirmed event.
package bookingsuc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
)

// UseCase represents a bookings use case.
type UseCase struct {
	pool       repo.Pool
	bookingsrp repo.Bookings
}

// New instantiates a bookings use case.
func New(p repo.Pool, b repo.Bookings) *UseCase {
	return &UseCase{pool: p, bookingsrp: b}
}

// Booking returns the bid booking or a 404 error if it does not exist.
func (uc *UseCase) Booking(ctx context.Context, bid uuid.UUID) (b *model.Booking, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		b, err = uc.bookingsrp.Conn(c).Booking(ctx, bid)
		return err
	})
	if errors.Is(err, model.ErrBookingNotFound) {
		return nil, cerr.NotFound(err)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
