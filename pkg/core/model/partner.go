// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PartnerStatus specifies the operational status of a delivery partner.
// It is (de)serialized as a lower-case string.
type PartnerStatus int

// Valid values for the PartnerStatus enum. Only online partners are
// eligible for matching.
const (
	PartnerStatusInvalid PartnerStatus = iota // zero value is invalid

	PartnerStatusOnline
	PartnerStatusOffline
	PartnerStatusSuspended
)

// ErrUnknownPartnerStatus indicates that a given string may not be
// parsed as a known partner status.
var ErrUnknownPartnerStatus = errors.New("unknown partner status")

// PartnerStatusError indicates an invalid partner status value.
type PartnerStatusError int

// Error implements the error interface.
func (e PartnerStatusError) Error() string {
	return fmt.Sprintf("invalid partner status: %d", e)
}

// Validate returns nil if PartnerStatus value is valid.
func (s PartnerStatus) Validate() error {
	switch s {
	case PartnerStatusOnline, PartnerStatusOffline, PartnerStatusSuspended:
		return nil
	default:
		return PartnerStatusError(s)
	}
}

// String converts the PartnerStatus enum to a string. Invalid status
// values cause a panic.
func (s PartnerStatus) String() string {
	switch s {
	case PartnerStatusOnline:
		return "online"
	case PartnerStatusOffline:
		return "offline"
	case PartnerStatusSuspended:
		return "suspended"
	default:
		panic(PartnerStatusError(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PartnerStatus) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PartnerStatus) UnmarshalText(text []byte) error {
	ps, err := ParsePartnerStatus(string(text))
	if err != nil {
		return err
	}
	*s = ps
	return nil
}

// ParsePartnerStatus parses the given string and returns a
// PartnerStatus. For unknown strings, PartnerStatusInvalid and
// ErrUnknownPartnerStatus will be returned.
func ParsePartnerStatus(s string) (PartnerStatus, error) {
	switch s {
	case "online":
		return PartnerStatusOnline, nil
	case "offline":
		return PartnerStatusOffline, nil
	case "suspended":
		return PartnerStatusSuspended, nil
	default:
		return PartnerStatusInvalid, ErrUnknownPartnerStatus
	}
}

// Partner models a delivery partner. The status and location fields are
// mutated by the partner itself (GPS updates and availability toggles)
// and are read-only from the matching engine perspective.
type Partner struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Status    PartnerStatus `json:"status"`
	Location  Coordinate    `json:"location"`
	City      string        `json:"city"`
	LastGPSAt *time.Time    `json:"lastGpsAt,omitempty"`
}
