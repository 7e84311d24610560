// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package geo evaluates distances between geographical coordinates.
// It is used as the ranking function of the partner matching engine.
package geo

import (
	"math"

	"github.com/momeni/rentdispatch/pkg/core/model"
)

// EarthRadiusKm is the mean radius of the Earth in kilometers.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in
// kilometers, computed by the haversine formula. It is symmetric and
// returns zero for identical points. Coordinates are not validated.
func Distance(a, b model.Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)
	sLat, sLon := math.Sin(dLat/2), math.Sin(dLon/2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLon*sLon
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(math.Min(1, h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
