// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Names of the pub/sub channels which carry the domain events.
// They double as the SSE event names on the push stream.
const (
	ChannelBookingConfirmed = "booking-confirmed"
	ChannelPartnerGPS       = "partner-gps"
)

// EventChannels lists all channels which the event gateway subscribes
// to, in a fixed order.
var EventChannels = []string{ChannelBookingConfirmed, ChannelPartnerGPS}

// Event is an ephemeral domain event. It is never persisted and is
// delivered at-most-once to each subscriber which is connected at the
// time of its publication.
type Event interface {
	// Channel returns the name of the channel which carries this event.
	Channel() string
}

// BookingConfirmed is published after a partner is bound to a booking.
type BookingConfirmed struct {
	BookingID  uuid.UUID     `json:"bookingId"`
	PartnerID  uuid.UUID     `json:"partnerId"`
	Status     BookingStatus `json:"status"`
	AssignedAt time.Time     `json:"assignedAt"`
}

// Channel implements the Event interface.
func (BookingConfirmed) Channel() string {
	return ChannelBookingConfirmed
}

// PartnerGPS is published whenever a partner reports a new position.
type PartnerGPS struct {
	PartnerID uuid.UUID `json:"partnerId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
}

// Channel implements the Event interface.
func (PartnerGPS) Channel() string {
	return ChannelPartnerGPS
}

// Message is a raw message which is received from the pub/sub bus.
type Message struct {
	Channel string
	Payload []byte
}

// Envelope is a bus message which is verified to carry a well-formed
// JSON document on a known channel, ready to be framed as a named event
// on a push stream.
type Envelope struct {
	Name string
	Data json.RawMessage
}
