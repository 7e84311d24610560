// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package matchuc contains the partner matching UseCase. It selects the
// online partner which is nearest to a given origin, ranking partners
// by their great-circle distance. Matching is a pure read and compute
// operation and never mutates partners or bookings.
package matchuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/geo"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/momeni/rentdispatch/pkg/core/usecase/matchuc")

// Match is a selected partner and its distance from the origin.
type Match struct {
	Partner    model.Partner
	DistanceKm float64
}

// UseCase represents a partner matching use case.
type UseCase struct {
	partnersrp repo.Partners
}

// New instantiates a partner matching use case.
func New(p repo.Partners) *UseCase {
	return &UseCase{partnersrp: p}
}

// SelectPartner queries the online partners using the c connection and
// returns the one which is nearest to origin. Equal distances are
// resolved in favor of the partner which is listed first by the
// repository (ordered by id). If no partner is online, a conflict
// error wrapping model.ErrNoOnlinePartner is returned.
func (uc *UseCase) SelectPartner(
	ctx context.Context, c repo.Conn, origin model.Coordinate,
) (*Match, error) {
	ctx, span := tracer.Start(ctx, "select-partner")
	defer span.End()

	partners, err := uc.partnersrp.Conn(c).OnlinePartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing online partners: %w", err)
	}
	span.SetAttributes(attribute.Int("partners.online", len(partners)))
	m, ok := Nearest(origin, partners)
	if !ok {
		return nil, cerr.Conflict(cerr.CodeNoOnlinePartner, model.ErrNoOnlinePartner)
	}
	log.Debug(
		ctx, "selected nearest partner",
		log.ID("partner", m.Partner.ID),
		slog.Float64("distance_km", m.DistanceKm),
		slog.Int("candidates", len(partners)),
	)
	return m, nil
}

// Nearest returns the partner which is nearest to origin among the
// online partners. The first one wins on ties. The false return value
// indicates that no online partner was given.
func Nearest(origin model.Coordinate, partners []model.Partner) (*Match, bool) {
	var best *Match
	for _, p := range partners {
		if p.Status != model.PartnerStatusOnline {
			continue
		}
		d := geo.Distance(origin, p.Location)
		if best == nil || d < best.DistanceKm {
			best = &Match{Partner: p, DistanceKm: d}
		}
	}
	return best, best != nil
}
