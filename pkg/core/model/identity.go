// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "fmt"

// Role of an authenticated caller.
type Role string

// Known roles. Customers request assignments for their bookings,
// partners report their own location and availability, and admins may
// do everything.
const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RolePartner  Role = "partner"
)

// Validate returns an error for unknown roles.
func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleCustomer, RolePartner:
		return nil
	default:
		return fmt.Errorf("unknown role %q", string(r))
	}
}

// Identity is the authenticated caller of an operation. It is resolved
// by an external identity provider, so Subject is opaque here. For the
// partners, Subject is their partner id.
type Identity struct {
	Subject string
	Role    Role
}

// IsAdmin reports if the caller has the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}
