// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// Coordinate represents a geographical location with a latitude and
// longitude in degrees. It is embedded by the Booking (as its delivery
// location) and the Partner (as its last reported GPS position) and is
// mapped to the lat/lon columns of their tables by the adapter layer.
type Coordinate struct {
	Lat float64 `json:"lat"` // latitude, in [-90, +90]
	Lon float64 `json:"lng"` // longitude, in [-180, +180]
}
