// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package geo_test

import (
	"testing"

	"github.com/momeni/rentdispatch/pkg/core/geo"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/stretchr/testify/assert"
)

func TestDistanceOfIdenticalPointsIsZero(t *testing.T) {
	for _, c := range []model.Coordinate{
		{Lat: 19.2, Lon: 72.82},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 90, Lon: 0},
		{},
	} {
		assert.Zero(t, geo.Distance(c, c), "point %+v", c)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]model.Coordinate{
		{{Lat: 19.203, Lon: 72.828}, {Lat: 19.2, Lon: 72.82}},
		{{Lat: 19.203, Lon: 72.828}, {Lat: 19.18, Lon: 72.80}},
		{{Lat: 51.5074, Lon: -0.1278}, {Lat: 40.7128, Lon: -74.006}},
		{{Lat: -89.9, Lon: 179.9}, {Lat: 89.9, Lon: -179.9}},
	}
	for _, p := range pairs {
		d1 := geo.Distance(p[0], p[1])
		d2 := geo.Distance(p[1], p[0])
		assert.InEpsilon(t, d1, d2, 1e-9, "pair %+v", p)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	london := model.Coordinate{Lat: 51.5074, Lon: -0.1278}
	paris := model.Coordinate{Lat: 48.8566, Lon: 2.3522}
	assert.InDelta(t, 343.5, geo.Distance(london, paris), 1.0)

	// one degree of latitude along a meridian
	a := model.Coordinate{Lat: 10, Lon: 20}
	b := model.Coordinate{Lat: 11, Lon: 20}
	assert.InDelta(t, 111.195, geo.Distance(a, b), 0.01)

	// antipodal points are half of the circumference apart
	n := model.Coordinate{Lat: 90, Lon: 0}
	s := model.Coordinate{Lat: -90, Lon: 0}
	assert.InDelta(t, 3.14159265*geo.EarthRadiusKm, geo.Distance(n, s), 0.01)
}

func TestDistanceRanksNearbyPartners(t *testing.T) {
	origin := model.Coordinate{Lat: 19.203, Lon: 72.828}
	p1 := model.Coordinate{Lat: 19.2, Lon: 72.82}
	p2 := model.Coordinate{Lat: 19.18, Lon: 72.80}
	assert.Less(t, geo.Distance(origin, p1), geo.Distance(origin, p2))
}
