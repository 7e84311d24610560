// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package partnersuc contains the partners UseCase which supports the
// partner-driven mutations, namely:
//  1. Reporting the current GPS location (rate limited),
//  2. Toggling the availability status.
//
// Each partner only updates its own row, so these operations rely on
// the atomic single-row updates of the database and need no locks.
package partnersuc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/ratelimituc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc")

// ErrSuspendedByAdmin indicates that a partner tried to change its own
// suspension.
var ErrSuspendedByAdmin = errors.New("suspension is managed by admins")

// UseCase represents a partners use case.
type UseCase struct {
	pool       repo.Pool
	partnersrp repo.Partners
	limiter    *ratelimituc.UseCase
	events     *eventuc.UseCase

	gpsLimit  int64
	gpsWindow time.Duration
	now       func() time.Time
}

// New instantiates a partners use case. GPS reports are limited to
// 20 per 10 seconds for each partner by default.
func New(
	p repo.Pool,
	pr repo.Partners,
	limiter *ratelimituc.UseCase,
	events *eventuc.UseCase,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, partnersrp: pr, limiter: limiter, events: events}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.gpsLimit == 0 {
		uc.gpsLimit = 20
		uc.gpsWindow = 10 * time.Second
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}

// GPSRateKey returns the rate limiter key of the pid partner reports.
func GPSRateKey(pid uuid.UUID) string {
	return "gps:" + pid.String()
}

// ReportLocation stores loc as the current location of the pid partner
// and publishes a partner-gps event. Reports which exceed the rate
// limit are rejected with a 429 RATE_LIMITED error.
func (uc *UseCase) ReportLocation(
	ctx context.Context, pid uuid.UUID, loc model.Coordinate,
) (p *model.Partner, err error) {
	ctx, span := tracer.Start(ctx, "report-location")
	span.SetAttributes(attribute.String("partner.id", pid.String()))
	defer span.End()

	if loc.Lat < -90 || loc.Lat > 90 || loc.Lon < -180 || loc.Lon > 180 {
		return nil, cerr.BadRequest(fmt.Errorf("coordinate (%v, %v) is out of range", loc.Lat, loc.Lon))
	}
	if !uc.limiter.Allow(ctx, GPSRateKey(pid), uc.gpsLimit, uc.gpsWindow) {
		return nil, cerr.TooManyRequests(model.ErrRateLimited)
	}
	at := uc.now().UTC().Truncate(time.Microsecond)
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		p, err = uc.partnersrp.Conn(c).UpdateLocation(ctx, pid, loc, at)
		return err
	})
	if err != nil {
		return nil, notFound(err)
	}
	uc.events.Publish(ctx, model.PartnerGPS{
		PartnerID: pid, Lat: loc.Lat, Lng: loc.Lon,
	})
	return p, nil
}

// SetStatus changes the availability of the pid partner. Only admins
// may suspend a partner or change the status of a suspended partner.
func (uc *UseCase) SetStatus(
	ctx context.Context, pid uuid.UUID, s model.PartnerStatus, admin bool,
) (p *model.Partner, err error) {
	if err = s.Validate(); err != nil {
		return nil, cerr.BadRequest(err)
	}
	if s == model.PartnerStatusSuspended && !admin {
		return nil, cerr.Authorization(ErrSuspendedByAdmin)
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		p, err = uc.partnersrp.Conn(c).SetStatus(ctx, pid, s, !admin)
		return err
	})
	switch {
	case errors.Is(err, model.ErrPartnerSuspended):
		return nil, cerr.Authorization(fmt.Errorf("%w: %w", ErrSuspendedByAdmin, err))
	case err != nil:
		return nil, notFound(err)
	}
	return p, nil
}

// Partner returns the pid partner.
func (uc *UseCase) Partner(ctx context.Context, pid uuid.UUID) (p *model.Partner, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		p, err = uc.partnersrp.Conn(c).Partner(ctx, pid)
		return err
	})
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func notFound(err error) error {
	if errors.Is(err, model.ErrPartnerNotFound) {
		return cerr.NotFound(err)
	}
	return err
}
