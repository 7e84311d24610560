// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
//
// The dispatch domain consists of bookings which need a delivery
// partner, partners which report their position and availability, and
// the ephemeral events which are fanned out to connected dashboards
// whenever one of them changes.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus specifies the lifecycle state of a booking.
// Although this enum is numeric, it is (de)serialized as an upper-case
// string for readability in the adapter layer and in the database.
type BookingStatus int

// Valid values for the BookingStatus enum. A booking is created as
// pending, becomes assigned when a partner is bound to it, and is
// confirmed later. It may be cancelled before reaching a terminal state.
const (
	BookingStatusInvalid BookingStatus = iota // zero value is invalid

	BookingStatusPending
	BookingStatusAssigned
	BookingStatusConfirmed
	BookingStatusCancelled
)

// ErrUnknownBookingStatus indicates that a given string may not be
// parsed as a known booking status.
var ErrUnknownBookingStatus = errors.New("unknown booking status")

// BookingStatusError indicates an invalid booking status, keeping the
// invalid numeric value.
type BookingStatusError int

// Error implements the error interface.
func (e BookingStatusError) Error() string {
	return fmt.Sprintf("invalid booking status: %d", e)
}

// Validate returns nil if BookingStatus value is valid. For invalid
// values, an instance of the BookingStatusError will be returned.
func (s BookingStatus) Validate() error {
	switch s {
	case BookingStatusPending, BookingStatusAssigned,
		BookingStatusConfirmed, BookingStatusCancelled:
		return nil
	default:
		return BookingStatusError(s)
	}
}

// String converts the BookingStatus enum to a string. Invalid status
// values cause a panic.
func (s BookingStatus) String() string {
	switch s {
	case BookingStatusPending:
		return "PENDING"
	case BookingStatusAssigned:
		return "ASSIGNED"
	case BookingStatusConfirmed:
		return "CONFIRMED"
	case BookingStatusCancelled:
		return "CANCELLED"
	default:
		panic(BookingStatusError(s))
	}
}

// MarshalText implements encoding.TextMarshaler, so a booking status
// is rendered as its string form in JSON documents.
func (s BookingStatus) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BookingStatus) UnmarshalText(text []byte) error {
	bs, err := ParseBookingStatus(string(text))
	if err != nil {
		return err
	}
	*s = bs
	return nil
}

// ParseBookingStatus parses the given string and returns a
// BookingStatus. For unknown strings, BookingStatusInvalid and
// ErrUnknownBookingStatus will be returned.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch s {
	case "PENDING":
		return BookingStatusPending, nil
	case "ASSIGNED":
		return BookingStatusAssigned, nil
	case "CONFIRMED":
		return BookingStatusConfirmed, nil
	case "CANCELLED":
		return BookingStatusCancelled, nil
	default:
		return BookingStatusInvalid, ErrUnknownBookingStatus
	}
}

// Booking models a rental booking which needs a delivery partner.
//
// PartnerID transitions from nil to non-nil exactly once and Status is
// BookingStatusAssigned if and only if that transition has happened and
// no later flow (confirmation or cancellation) has moved it forward.
type Booking struct {
	ID          uuid.UUID     `json:"id"`
	Destination Coordinate    `json:"destination"` // delivery location
	Status      BookingStatus `json:"status"`
	PartnerID   *uuid.UUID    `json:"partnerId"`
	AssignedAt  *time.Time    `json:"assignedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Assignable reports if a partner may be bound to this booking.
// Only pending bookings which have no partner are assignable. All other
// states are terminal as far as the assignment operation is concerned.
func (b *Booking) Assignable() bool {
	return b.Status == BookingStatusPending && b.PartnerID == nil
}

// Assignment is the result of a successful partner assignment.
type Assignment struct {
	BookingID  uuid.UUID `json:"bookingId"`
	PartnerID  uuid.UUID `json:"partnerId"`
	DistanceKm float64   `json:"distanceKm"`
	AssignedAt time.Time `json:"assignedAt"`
}

// AssignLockKey returns the per-booking lock key which serializes the
// concurrent assignment attempts of the bid booking. Unrelated bookings
// use distinct keys, so they never contend with each other.
func AssignLockKey(bid uuid.UUID) string {
	return "booking:" + bid.String() + ":assign"
}
